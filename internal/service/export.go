package service

import (
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrExportUnavailable = errors.New("calendar export storage is not configured")

// ExportResult points at an uploaded calendar export.
type ExportResult struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Days        int       `json:"days"`
}

type calendarExport struct {
	OwnerID     string    `json:"ownerId"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	GeneratedAt time.Time `json:"generatedAt"`
	Days        []DayView `json:"days"`
}

// ExportService writes resolved calendar ranges to object storage.
type ExportService interface {
	ExportRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) (*ExportResult, error)
}

type exportService struct {
	resolver    ScheduleResolver
	fileStorage storage.FileStorage
	urlExpiry   time.Duration
	now         Clock
	log         *logger.Logger
}

// NewExportService creates a new instance of exportService. fileStorage may be
// nil, in which case every export fails with ErrExportUnavailable.
func NewExportService(resolver ScheduleResolver, fileStorage storage.FileStorage, now Clock, log *logger.Logger) ExportService {
	return &exportService{
		resolver:    resolver,
		fileStorage: fileStorage,
		urlExpiry:   storage.DefaultPresignedURLExpiry,
		now:         now,
		log:         log.With("component", "export"),
	}
}

// ExportRange resolves [from, to] exactly as the calendar shows it and uploads
// the result as JSON.
func (s *exportService) ExportRange(ctx context.Context, ownerID primitive.ObjectID, from, to time.Time) (*ExportResult, error) {
	if s.fileStorage == nil {
		return nil, ErrExportUnavailable
	}
	days, err := s.resolver.ResolveRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(calendarExport{
		OwnerID:     ownerID.Hex(),
		From:        domain.FormatDate(from),
		To:          domain.FormatDate(to),
		GeneratedAt: s.now().UTC(),
		Days:        days,
	})
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	objectKey := path.Join("exports", ownerID.Hex(), uuid.NewString()+".json")
	if err := s.fileStorage.PutObject(ctx, objectKey, "application/json", body); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.log.Info("calendar exported", "owner_id", ownerID.Hex(), "key", objectKey, "days", len(days))
	return &ExportResult{
		ObjectKey:   objectKey,
		DownloadURL: url,
		ExpiresAt:   s.now().UTC().Add(s.urlExpiry),
		Days:        len(days),
	}, nil
}
