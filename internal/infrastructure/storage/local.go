package storage

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"docshare/internal/config"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("文件不存在")

// LocalStore 本地文件存储
// 对上层只暴露不透明句柄：存进去拿到一个 handle，之后凭 handle 取回或删除，
// 调用方不感知磁盘路径
type LocalStore struct {
	baseDir string
}

func NewLocalStore(cfg *config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, err
	}
	log.Printf("本地文件存储目录: %s", cfg.BaseDir)
	return &LocalStore{baseDir: cfg.BaseDir}, nil
}

// Save 写入文件内容，返回新分配的句柄
func (s *LocalStore) Save(r io.Reader) (string, int64, error) {
	handle := uuid.New().String()

	f, err := os.Create(s.path(handle))
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(s.path(handle))
		return "", 0, err
	}

	return handle, size, nil
}

// Open 按句柄打开文件，调用方负责 Close
func (s *LocalStore) Open(handle string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

// Path 按句柄返回磁盘路径（供 HTTP 层做文件响应）
func (s *LocalStore) Path(handle string) string {
	return s.path(handle)
}

// Delete 按句柄删除文件，文件不存在不算错误
func (s *LocalStore) Delete(handle string) error {
	err := os.Remove(s.path(handle))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStore) path(handle string) string {
	// 句柄由我们自己生成（uuid），不会包含路径分隔符
	return filepath.Join(s.baseDir, handle)
}
