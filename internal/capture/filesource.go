package capture

import (
	"context"
	"os"
	"sync"
)

// DefaultFragmentSize is the chunk size used when replaying a file as a
// capture stream.
const DefaultFragmentSize = 64 * 1024

// FileSource replays a media file as a capture stream, fragment by
// fragment. It stands in for a hardware device on headless machines and
// in the capture CLI.
type FileSource struct {
	Path         string
	FragmentSize int
}

// Open starts replaying the file. The constraints are accepted but not
// applied; the file's encoding is whatever it is.
func (f *FileSource) Open(ctx context.Context, c Constraints) (Stream, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}

	size := f.FragmentSize
	if size <= 0 {
		size = DefaultFragmentSize
	}

	s := &fileStream{
		fragments: make(chan Fragment),
		stop:      make(chan struct{}),
	}

	go func() {
		defer close(s.fragments)
		defer file.Close()
		for {
			buf := make([]byte, size)
			n, err := file.Read(buf)
			if n > 0 {
				select {
				case s.fragments <- Fragment(buf[:n]):
				case <-s.stop:
					return
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return s, nil
}

type fileStream struct {
	fragments chan Fragment
	stop      chan struct{}
	once      sync.Once
}

func (s *fileStream) Fragments() <-chan Fragment { return s.fragments }

func (s *fileStream) Stop() {
	s.once.Do(func() { close(s.stop) })
}
