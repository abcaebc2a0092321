// Package archive abstracts compressed-archive access behind a narrow
// interface with a zip adapter.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"contest-translator/internal/types"
)

// Entry describes one archive member.
type Entry struct {
	Name string
	Dir  bool
}

// Handle is an opened archive.
type Handle interface {
	Entries() []Entry
	// Read returns the decompressed bytes of the named entry.
	Read(name string) ([]byte, error)
}

// Source opens raw archive bytes.
type Source interface {
	Open(data []byte) (Handle, error)
}

// ZipSource opens zip archives with the standard library reader.
type ZipSource struct{}

// NewZipSource creates a zip archive source.
func NewZipSource() *ZipSource {
	return &ZipSource{}
}

// Open opens a zip archive held in memory.
func (s *ZipSource) Open(data []byte) (Handle, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.NewAppError(types.ErrParse, "无法解析 ZIP 文件，请确保文件未损坏", err)
	}
	return &zipHandle{reader: r}, nil
}

type zipHandle struct {
	reader *zip.Reader
}

func (h *zipHandle) Entries() []Entry {
	entries := make([]Entry, 0, len(h.reader.File))
	for _, f := range h.reader.File {
		entries = append(entries, Entry{
			Name: f.Name,
			Dir:  f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
		})
	}
	return entries
}

func (h *zipHandle) Read(name string) ([]byte, error) {
	for _, f := range h.reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, types.NewAppError(types.ErrParse, "无法读取压缩包条目: "+name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, types.NewAppError(types.ErrParse, "无法解压条目: "+name, err)
		}
		return data, nil
	}
	return nil, types.NewAppError(types.ErrParse, "压缩包内不存在条目: "+name, nil)
}
