package drive

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/remote"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	fileFields      = "id,name,mimeType,size,createdTime,trashed,imageMediaMetadata"
	maxDownloadSize = 256 << 20
)

type FileRepository struct {
	svc      *drive.Service
	email    string
	timeout  time.Duration
	pageSize int64
	retries  retry.Strategy
	logger   *zlog.Zerolog
}

// NewFileRepository authenticates with a service-account email and private
// key. Missing credentials fail before any network call is made.
func NewFileRepository(ctx context.Context, cfg config.DriveConfig, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	key := cfg.Key()
	if strings.TrimSpace(cfg.ServiceAccountEmail) == "" || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: service account email and private key are required", remote.ErrConfiguration)
	}

	if err := checkPrivateKey([]byte(key)); err != nil {
		return nil, fmt.Errorf("%w: service account %s: %v", remote.ErrAuth, cfg.ServiceAccountEmail, err)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}

	jwtCfg := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(key),
		Scopes:     []string{drive.DriveReadonlyScope},
		TokenURL:   tokenURL,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	// token exchanges run outside any request context, so bound them here
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})

	opts := []option.ClientOption{option.WithHTTPClient(jwtCfg.Client(tokenCtx))}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	if retries.Attempts < 1 {
		retries.Attempts = 1
	}

	return &FileRepository{
		svc:      svc,
		email:    cfg.ServiceAccountEmail,
		timeout:  timeout,
		pageSize: pageSize,
		retries:  retries,
		logger:   logger,
	}, nil
}

// List returns the eligible files of a folder ordered by name.
func (r *FileRepository) List(ctx context.Context, folderID string, mimeTypes []string) ([]domain.RemoteImageFile, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return nil, fmt.Errorf("%w: folder id is empty", remote.ErrConfiguration)
	}

	query := buildQuery(folderID, mimeTypes)
	fields := googleapi.Field(fmt.Sprintf("nextPageToken,files(%s)", fileFields))

	var files []domain.RemoteImageFile
	pageToken := ""
	for {
		call := r.svc.Files.List().
			Q(query).
			OrderBy("name").
			PageSize(r.pageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Fields(fields)
		if pageToken != "" {
			call.PageToken(pageToken)
		}

		var page *drive.FileList
		err := r.call(ctx, func(ctx context.Context) error {
			var err error
			page, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, r.classify(err, "folder", folderID)
		}

		for _, f := range page.Files {
			if f.Trashed || !allowedMimeType(f.MimeType, mimeTypes) {
				continue
			}
			files = append(files, toRemoteFile(f))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	r.logger.Debug().Str("folder_id", folderID).Int("files", len(files)).Msg("Listed folder")
	return files, nil
}

func (r *FileRepository) Stat(ctx context.Context, fileID string) (*domain.RemoteImageFile, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, fmt.Errorf("%w: file id is empty", remote.ErrConfiguration)
	}

	var f *drive.File
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		f, err = r.svc.Files.Get(fileID).
			SupportsAllDrives(true).
			Fields(googleapi.Field(fileFields)).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, r.classify(err, "file", fileID)
	}
	if f.Trashed {
		return nil, fmt.Errorf("%w: file %s is trashed", remote.ErrNotFound, fileID)
	}

	file := toRemoteFile(f)
	return &file, nil
}

// Download fetches the original bytes of one file.
func (r *FileRepository) Download(ctx context.Context, fileID string) ([]byte, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, fmt.Errorf("%w: file id is empty", remote.ErrConfiguration)
	}

	var data []byte
	err := r.call(ctx, func(ctx context.Context) error {
		resp, err := r.svc.Files.Get(fileID).
			SupportsAllDrives(true).
			Context(ctx).
			Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
		if err != nil {
			return err
		}
		if len(data) > maxDownloadSize {
			return fmt.Errorf("file exceeds %d bytes", maxDownloadSize)
		}
		return nil
	})
	if err != nil {
		return nil, r.classify(err, "file", fileID)
	}

	return data, nil
}

// call runs fn under the per-request timeout and the retry strategy.
// Errors that retrying cannot fix end the loop immediately, and the final
// attempt returns without waiting out another backoff.
func (r *FileRepository) call(ctx context.Context, fn func(ctx context.Context) error) error {
	var permanent error
	attempt := 0
	err := retry.DoContext(ctx, r.retries, func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !shouldRetry(err) || attempt >= r.retries.Attempts {
			permanent = err
			return nil
		}
		r.logger.Warn().Err(err).Int("attempt", attempt).Msg("Drive request failed, retrying")
		return err
	})

	if permanent != nil {
		return permanent
	}
	return err
}

func shouldRetry(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 500
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code >= 500 || gerr.Code == http.StatusTooManyRequests {
			return true
		}
		return isRateLimited(gerr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func isRateLimited(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}

func (r *FileRepository) classify(err error, kind, id string) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: service account %s: %v", remote.ErrAuth, r.email, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: service account %s: %v", remote.ErrAuth, r.email, err)
		case gerr.Code == http.StatusForbidden && !isRateLimited(gerr):
			return fmt.Errorf("%w: %s %s: share it with the service account %s: %v", remote.ErrForbidden, kind, id, r.email, err)
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %s %s: %v", remote.ErrNotFound, kind, id, err)
		}
	}

	return fmt.Errorf("%w: %s %s: %v", remote.ErrUpstream, kind, id, err)
}

func buildQuery(folderID string, mimeTypes []string) string {
	parts := []string{
		fmt.Sprintf("'%s' in parents", escapeQuery(folderID)),
		"trashed = false",
	}

	if len(mimeTypes) > 0 {
		clauses := make([]string, 0, len(mimeTypes))
		for _, mt := range mimeTypes {
			clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", escapeQuery(mt)))
		}
		parts = append(parts, "("+strings.Join(clauses, " or ")+")")
	}

	return strings.Join(parts, " and ")
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func allowedMimeType(mimeType string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, mimeType) {
			return true
		}
	}
	return false
}

func checkPrivateKey(key []byte) error {
	der := key
	if block, _ := pem.Decode(key); block != nil {
		der = block.Bytes
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		parsed, err = x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return fmt.Errorf("private key should be a PEM or plain PKCS1 or PKCS8: %w", err)
		}
	}

	if _, ok := parsed.(*rsa.PrivateKey); !ok {
		return errors.New("private key is not an RSA key")
	}
	return nil
}
