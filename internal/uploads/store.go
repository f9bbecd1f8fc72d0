package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/angelmondragon/movies-backend/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
)

// ErrOutsideStore is returned when a public path does not point into the store.
var ErrOutsideStore = errors.New("path is outside the upload store")

// Options configures the on-disk upload store.
type Options struct {
	Dir       string
	URLPrefix string
	Logger    *logger.Logger
	// Now overrides the clock used for stored names.
	Now func() time.Time
}

// Store keeps uploaded files in a flat local directory.
type Store struct {
	dir       string
	urlPrefix string
	logg      *logger.Logger
	now       func() time.Time
}

// StoredFile describes a file written by Save.
type StoredFile struct {
	Name        string
	Path        string
	DiskPath    string
	Size        int64
	ContentType string
}

// FileInfo is one entry of the store listing.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
}

func NewStore(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("upload dir is required")
	}
	prefix := "/" + strings.Trim(opts.URLPrefix, "/")
	if prefix == "/" {
		return nil, errors.New("upload url prefix is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		dir:       filepath.Clean(opts.Dir),
		urlPrefix: prefix,
		logg:      logg,
		now:       now,
	}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// URLPrefix returns the route the store is served under.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// EnsureDir creates the upload directory when missing and reports whether it did.
func (s *Store) EnsureDir(ctx context.Context) (bool, error) {
	info, err := os.Stat(s.dir)
	switch {
	case err == nil && info.IsDir():
		s.logg.Info(s.logg.WithField(ctx, "dir", s.dir), "uploads folder already exists")
		return false, nil
	case err == nil:
		return false, fmt.Errorf("upload path %q is not a directory", s.dir)
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("stat upload dir: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("create upload dir: %w", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "dir", s.dir), "uploads folder created")
	return true, nil
}

// Save writes the uploaded part verbatim under "<unix-millis>-<original name>".
func (s *Store) Save(ctx context.Context, header *multipart.FileHeader) (*StoredFile, error) {
	if header == nil {
		return nil, errors.New("file header is required")
	}
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	return s.write(ctx, header.Filename, src)
}

func (s *Store) write(ctx context.Context, originalName string, src io.Reader) (*StoredFile, error) {
	clean := SanitizeFileName(originalName)
	if clean == "" {
		clean = "upload"
	}
	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + clean
	diskPath := filepath.Join(s.dir, name)

	dst, err := os.Create(diskPath)
	if err != nil {
		return nil, fmt.Errorf("create stored file: %w", err)
	}
	size, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(diskPath)
		if copyErr != nil {
			return nil, fmt.Errorf("write stored file: %w", copyErr)
		}
		return nil, fmt.Errorf("close stored file: %w", closeErr)
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(diskPath); err == nil {
		contentType = mt.String()
	}

	stored := &StoredFile{
		Name:        name,
		Path:        s.PublicPath(name),
		DiskPath:    diskPath,
		Size:        size,
		ContentType: contentType,
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"file":         stored.Path,
		"size":         size,
		"content_type": contentType,
	}), "upload stored")
	return stored, nil
}

// PublicPath is the value persisted on a record for a stored name.
func (s *Store) PublicPath(name string) string {
	return strings.TrimPrefix(s.urlPrefix, "/") + "/" + name
}

// Remove deletes the file behind a public path. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, publicPath string) error {
	name, err := s.nameFromPublicPath(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	s.logg.Debug(s.logg.WithField(ctx, "file", publicPath), "upload removed")
	return nil
}

func (s *Store) nameFromPublicPath(publicPath string) (string, error) {
	trimmed := strings.TrimPrefix(publicPath, "/")
	prefix := strings.TrimPrefix(s.urlPrefix, "/") + "/"
	if !strings.HasPrefix(trimmed, prefix) {
		return "", ErrOutsideStore
	}
	name := strings.TrimPrefix(trimmed, prefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrOutsideStore
	}
	return name, nil
}

// List returns the regular files currently in the store.
func (s *Store) List(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %q: %w", entry.Name(), err)
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    s.PublicPath(entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// Handler serves stored files under the URL prefix. Directory requests get 404.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(s.urlPrefix, http.FileServer(fileOnlyFS{root: http.Dir(s.dir)}))
}

type fileOnlyFS struct {
	root http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.root.Open(path.Clean("/" + name))
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// SanitizeFileName keeps the base name as given and drops only path
// separators and control characters.
func SanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(name, `\`, "/"))
	clean = strings.Map(func(r rune) rune {
		if r == '/' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, clean)
	if clean == "." || clean == ".." {
		return ""
	}
	return clean
}
