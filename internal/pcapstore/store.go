// filename: internal/pcapstore/store.go
package pcapstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/gopacket/pcapgo"

	"github.com/rulesmith/rulesmith/internal/common/config"
	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/pg"
	"github.com/rulesmith/rulesmith/internal/models"
)

// unsafeChars вырезаются из имен загружаемых файлов
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store представляет хранилище загруженных PCAP файлов.
// Файлы лежат на диске, метаданные в PostgreSQL. // v1.0
type Store struct {
	dir      string
	maxSize  int64
	pgClient *pg.Client
	logger   *logging.Logger
}

// NewStore создает новое хранилище PCAP файлов // v1.0
func NewStore(cfg config.UploadsConfig, pgClient *pg.Client, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &Store{
		dir:      cfg.Dir,
		maxSize:  cfg.MaxSizeBytes,
		pgClient: pgClient,
		logger:   logger,
	}, nil
}

// Dir возвращает директорию хранилища // v1.0
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeFilename приводит имя файла к безопасному виду // v1.0
func SanitizeFilename(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")

	lower := strings.ToLower(base)
	if !strings.HasSuffix(lower, ".pcap") && !strings.HasSuffix(lower, ".pcapng") {
		return "", apperrors.New(apperrors.ErrorCodePcapInvalid, "only .pcap and .pcapng files are accepted")
	}

	if strings.TrimSuffix(strings.TrimSuffix(lower, ".pcapng"), ".pcap") == "" {
		return "", apperrors.New(apperrors.ErrorCodePcapInvalid, "filename is empty")
	}

	return base, nil
}

// Save сохраняет загруженный файл, проверяет формат и пишет метаданные // v1.0
func (s *Store) Save(ctx context.Context, filename string, r io.Reader, declaredSize int64) (*models.PcapFile, error) {
	if s.maxSize > 0 && declaredSize > s.maxSize {
		return nil, apperrors.New(apperrors.ErrorCodePcapTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxSize)).
			AddDetail("size_bytes", declaredSize)
	}

	safeName, err := SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	destPath := filepath.Join(s.dir, safeName)

	dest, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to create upload file")
	}

	// Лимит с запасом в один байт чтобы отличить ровно-лимит от превышения
	limit := io.Reader(r)
	if s.maxSize > 0 {
		limit = io.LimitReader(r, s.maxSize+1)
	}

	written, err := io.Copy(dest, limit)
	dest.Close()
	if err != nil {
		os.Remove(destPath)
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to write upload file")
	}

	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(destPath)
		return nil, apperrors.New(apperrors.ErrorCodePcapTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxSize))
	}

	linkType, err := DetectLinkType(destPath)
	if err != nil {
		os.Remove(destPath)
		return nil, apperrors.Wrap(err, apperrors.ErrorCodePcapInvalid, "file is not a valid pcap or pcapng capture")
	}

	file := &models.PcapFile{
		Filename:  safeName,
		Filepath:  destPath,
		SizeBytes: written,
		LinkType:  linkType,
	}

	query := `INSERT INTO pcap_files (filename, filepath, size_bytes, link_type)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (filename) DO UPDATE
			  SET filepath = EXCLUDED.filepath,
			      size_bytes = EXCLUDED.size_bytes,
			      link_type = EXCLUDED.link_type,
			      uploaded_at = NOW()
			  RETURNING id, uploaded_at`

	if err := s.pgClient.QueryRow(ctx, query, file.Filename, file.Filepath, file.SizeBytes, file.LinkType).
		Scan(&file.ID, &file.UploadedAt); err != nil {
		os.Remove(destPath)
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to store pcap metadata")
	}

	s.logger.Logger.WithFields(map[string]interface{}{
		"filename":   file.Filename,
		"size_bytes": file.SizeBytes,
		"link_type":  file.LinkType,
	}).Info("PCAP file uploaded")

	return file, nil
}

// DetectLinkType проверяет формат захвата и возвращает тип канального уровня // v1.0
func DetectLinkType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if r, err := pcapgo.NewReader(f); err == nil {
		return r.LinkType().String(), nil
	}

	// Формат pcapng проверяется вторым заходом с начала файла
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	ng, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		return "", fmt.Errorf("unrecognized capture format: %w", err)
	}

	return ng.LinkType().String(), nil
}

// List возвращает метаданные всех загруженных файлов // v1.0
func (s *Store) List(ctx context.Context) ([]models.PcapFile, error) {
	query := `SELECT id, filename, filepath, size_bytes, link_type, uploaded_at
			  FROM pcap_files ORDER BY uploaded_at DESC`

	rows, err := s.pgClient.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to list pcap files")
	}
	defer rows.Close()

	files := make([]models.PcapFile, 0)
	for rows.Next() {
		var f models.PcapFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.Filepath, &f.SizeBytes, &f.LinkType, &f.UploadedAt); err != nil {
			s.logger.Logger.WithField("error", err.Error()).Error("Failed to scan pcap row")
			continue
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to iterate pcap rows")
	}

	return files, nil
}

// Get возвращает метаданные файла по имени // v1.0
func (s *Store) Get(ctx context.Context, filename string) (*models.PcapFile, error) {
	query := `SELECT id, filename, filepath, size_bytes, link_type, uploaded_at
			  FROM pcap_files WHERE filename = $1`

	var f models.PcapFile
	err := s.pgClient.QueryRow(ctx, query, filename).
		Scan(&f.ID, &f.Filename, &f.Filepath, &f.SizeBytes, &f.LinkType, &f.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrorCodePcapNotFound,
			fmt.Sprintf("pcap file '%s' not found", filename))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to query pcap file")
	}

	return &f, nil
}

// Delete удаляет файл с диска и его метаданные // v1.0
func (s *Store) Delete(ctx context.Context, filename string) error {
	file, err := s.Get(ctx, filename)
	if err != nil {
		return err
	}

	if err := os.Remove(file.Filepath); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to remove pcap file")
	}

	if _, err := s.pgClient.Exec(ctx, `DELETE FROM pcap_files WHERE filename = $1`, filename); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to delete pcap metadata")
	}

	s.logger.Logger.WithField("filename", filename).Info("PCAP file deleted")
	return nil
}
