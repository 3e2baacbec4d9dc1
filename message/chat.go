package message

// Chat is a demo fixed-size application message: a single chat line
// packed into exactly 22 bytes, NUL-padded. It backs the cmd/ example
// programs and the end-to-end echo tests.
type Chat struct {
	Text string
}

// ChatSize is the fixed wire size of Chat: long enough for the demo
// greeting "Hello from the client!", which is exactly 22 bytes.
const ChatSize = 22

// ChatCodec implements message.Codec[Chat].
type ChatCodec struct{}

var _ Codec[Chat] = ChatCodec{}

func (ChatCodec) Size() int { return ChatSize }

func (ChatCodec) Serialize(v Chat, dst []byte) {
	n := copy(dst, v.Text)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func (ChatCodec) Deserialize(src []byte) (Chat, error) {
	end := len(src)
	for end > 0 && src[end-1] == 0 {
		end--
	}
	return Chat{Text: string(src[:end])}, nil
}
