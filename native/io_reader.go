package native

import (
	"bufio"
	"os"
	"sync"

	"classvm/vmthread"
	"classvm/vmvalue"
)

// stdinReader is the single buffered reader backing every
// java/io/InputStreamReader instance wrapping System.in, since this VM does
// not model distinct InputStream sources — a minimal bridge per §12, not a
// general file/socket stream implementation.
var (
	stdinOnce sync.Once
	stdinBuf  *bufio.Reader
)

func stdin() *bufio.Reader {
	stdinOnce.Do(func() { stdinBuf = bufio.NewReader(os.Stdin) })
	return stdinBuf
}

func loadIoInputStreamReader() {
	Register("java/io/InputStreamReader", "<init>", "(Ljava/io/InputStream;)V", GMeth{1, justReturn})

	Register("java/io/InputStreamReader", "read", "()I", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		b, err := stdin().ReadByte()
		if err != nil {
			return vmvalue.Int(-1)
		}
		return vmvalue.Int(b)
	}})

	Register("java/io/InputStreamReader", "ready", "()Z", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		if stdin().Buffered() > 0 {
			return vmvalue.Int(1)
		}
		return vmvalue.Int(0)
	}})
}
