package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/manifest"

	"github.com/wb-go/wbf/zlog"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ManifestRepository stores generated manifests and cover images below
// one output directory. Every write replaces the whole file atomically.
type ManifestRepository struct {
	root       string
	publicPath string
	logger     *zlog.Zerolog
}

func NewManifestRepository(root, publicPath string, logger *zlog.Zerolog) *ManifestRepository {
	return &ManifestRepository{
		root:       root,
		publicPath: publicPath,
		logger:     logger,
	}
}

// Root is the directory manifests are written to.
func (r *ManifestRepository) Root() string {
	return r.root
}

func (r *ManifestRepository) SaveGallery(slug string, records []domain.GalleryImageRecord) error {
	if err := validateSlug(slug); err != nil {
		return err
	}
	if records == nil {
		records = []domain.GalleryImageRecord{}
	}

	return r.writeJSON(r.galleryPath(slug), records)
}

func (r *ManifestRepository) LoadGallery(slug string) ([]domain.GalleryImageRecord, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	var records []domain.GalleryImageRecord
	if err := r.readJSON(r.galleryPath(slug), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveCoverImage writes the encoded cover and returns its file name and
// site relative path.
func (r *ManifestRepository) SaveCoverImage(slug string, format domain.ImageFormat, data []byte) (string, string, error) {
	if err := validateSlug(slug); err != nil {
		return "", "", err
	}

	filename := slug + "." + format.Extension()
	if err := r.writeFile(filepath.Join(r.root, domain.CoversDir, filename), data); err != nil {
		return "", "", err
	}

	return filename, path.Join("/", r.publicPath, domain.CoversDir, filename), nil
}

func (r *ManifestRepository) SaveCovers(records []domain.CoverThumbnailRecord) error {
	if records == nil {
		records = []domain.CoverThumbnailRecord{}
	}
	return r.writeJSON(filepath.Join(r.root, domain.CoversDir, domain.CoversManifest), records)
}

func (r *ManifestRepository) LoadCovers() ([]domain.CoverThumbnailRecord, error) {
	var records []domain.CoverThumbnailRecord
	if err := r.readJSON(filepath.Join(r.root, domain.CoversDir, domain.CoversManifest), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ManifestRepository) galleryPath(slug string) string {
	return filepath.Join(r.root, domain.GalleriesDir, slug+".json")
}

func (r *ManifestRepository) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest %s: %w", name, err)
	}
	return r.writeFile(name, append(data, '\n'))
}

func (r *ManifestRepository) writeFile(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	r.logger.Debug().Str("path", name).Int("bytes", len(data)).Msg("File written")
	return nil
}

func (r *ManifestRepository) readJSON(name string, v any) error {
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", manifest.ErrManifestUnavailable, filepath.Base(name))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", manifest.ErrCorruptManifest, filepath.Base(name), err)
	}
	return nil
}

func validateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", manifest.ErrInvalidSlug, slug)
	}
	return nil
}
