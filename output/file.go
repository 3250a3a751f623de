package output

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

type FileWriter struct {
	fullPath string
}

func NewFileWriter(url *url.URL, options *Options) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		fullPath = fmt.Sprintf("./%s", filepath.Base(url.Path))
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
	}
}

func makeNonOverlappingFilename(path string) string {
	_, err := os.Stat(path)
	if err == nil {
		re := regexp.MustCompile(`\.(\d+)$`)
		newPath := re.ReplaceAllStringFunc(path, func(index string) string {
			i, err := strconv.Atoi(strings.TrimPrefix(index, "."))
			if err != nil {
				panic(err)
			}
			i++
			return fmt.Sprintf(".%d", i)
		})
		if path == newPath {
			path = fmt.Sprintf("%s.%d", path, 1)
		} else {
			path = newPath
		}
		path = makeNonOverlappingFilename(path)
	}
	return path
}

// Download streams the response body into the target file, reporting
// progress on stderr with human-readable byte counts.
func (f *FileWriter) Download(resp *http.Response) error {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", f.fullPath)
	}
	defer file.Close()

	total := resp.ContentLength
	buf := make([]byte, 32*1024)
	var written int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return errors.Wrapf(err, "writing %s", f.fullPath)
			}
			written += int64(n)
			f.printProgress(written, total)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.Wrap(readErr, "reading response body")
		}
	}

	fmt.Fprintf(os.Stderr, "\nDone. %s written to %s\n",
		bytefmt.ByteSize(uint64(written)), f.fullPath)
	return nil
}

func (f *FileWriter) printProgress(written, total int64) {
	if total > 0 {
		fmt.Fprintf(os.Stderr, "\rDownloading: %s / %s (%d%%)",
			bytefmt.ByteSize(uint64(written)),
			bytefmt.ByteSize(uint64(total)),
			written*100/total)
	} else {
		fmt.Fprintf(os.Stderr, "\rDownloading: %s", bytefmt.ByteSize(uint64(written)))
	}
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}
