package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/email"
	"github.com/carevia/foundation/internal/metrics"
	"github.com/carevia/foundation/internal/repository"
	"github.com/carevia/foundation/internal/storage"
)

const (
	// MaxGalleryUploadBytes caps the size of an uploaded gallery image.
	MaxGalleryUploadBytes = 10 << 20

	// DefaultContactHourlyLimit is how many contact messages one address may
	// store per hour, counted in the database.
	DefaultContactHourlyLimit = 5

	// DefaultRecentContacts is how many contacts the admin dashboard shows.
	DefaultRecentContacts = 50

	defaultNotifyTimeout = 10 * time.Second
)

// =============================================================================
// Interface Definition
// =============================================================================

// ContentService manages the public site's content: contact messages,
// gallery images and testimonials.
type ContentService interface {
	// SubmitContact stores a contact form message.
	// Returns a *domain.ValidationError for missing or malformed fields.
	// Returns domain.ERATELIMIT when the submitter exceeded the hourly limit.
	SubmitContact(ctx context.Context, params domain.ContactParams) (*domain.Contact, error)

	// ListRecentContacts returns the newest contacts first.
	ListRecentContacts(ctx context.Context, limit int) ([]domain.Contact, error)

	// ListGallery returns gallery items, newest first.
	ListGallery(ctx context.Context) ([]domain.GalleryItem, error)

	// AddGalleryItem validates, resizes and stores an uploaded image.
	// Returns domain.ETOOLARGE above MaxGalleryUploadBytes.
	// Returns domain.EINVALID for content that is not an allowed image.
	AddGalleryItem(ctx context.Context, params domain.GalleryUploadParams, data io.Reader) (*domain.GalleryItem, error)

	// DeleteGalleryItem removes the item and its stored image.
	// Returns domain.ENOTFOUND if the item does not exist.
	DeleteGalleryItem(ctx context.Context, id int64) error

	// ListTestimonials returns testimonials, newest first.
	ListTestimonials(ctx context.Context) ([]domain.Testimonial, error)

	// AddTestimonial stores a testimonial.
	AddTestimonial(ctx context.Context, params domain.TestimonialParams) (*domain.Testimonial, error)

	// DeleteTestimonial removes a testimonial. Deleting a missing id is not an error.
	DeleteTestimonial(ctx context.Context, id int64) error
}

// ContentServiceConfig configures a ContentService.
type ContentServiceConfig struct {
	ContactHourlyLimit int // 0 uses DefaultContactHourlyLimit; negative disables
	Notifier           email.Notifier
	NotifyTimeout      time.Duration
	Clock              func() time.Time
}

// =============================================================================
// Implementation
// =============================================================================

type contentService struct {
	queries      repository.Querier
	storage      storage.Storage
	processor    ImageProcessor
	contactLimit int
	notifier     email.Notifier
	notifyWait   time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewContentService creates a ContentService.
func NewContentService(
	queries repository.Querier,
	store storage.Storage,
	processor ImageProcessor,
	cfg ContentServiceConfig,
	logger *slog.Logger,
) ContentService {
	if cfg.ContactHourlyLimit == 0 {
		cfg.ContactHourlyLimit = DefaultContactHourlyLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if processor == nil {
		processor = NewImagingProcessor()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = email.NopNotifier{}
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	return &contentService{
		queries:      queries,
		storage:      store,
		processor:    processor,
		contactLimit: cfg.ContactHourlyLimit,
		notifier:     cfg.Notifier,
		notifyWait:   cfg.NotifyTimeout,
		now:          cfg.Clock,
		logger:       logger,
	}
}

// -----------------------------------------------------------------------------
// Contacts
// -----------------------------------------------------------------------------

func (s *contentService) SubmitContact(ctx context.Context, params domain.ContactParams) (*domain.Contact, error) {
	const op = "content.SubmitContact"

	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ip := toInet(params.SubmitterIP)

	if s.contactLimit > 0 && ip.Valid {
		count, err := s.queries.CountContactsSince(ctx, repository.CountContactsSinceParams{
			SubmitterIp: ip,
			CreatedAt:   s.now().Add(-time.Hour),
		})
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to check submission history")
		}
		if count >= int64(s.contactLimit) {
			s.logger.Warn("contact submission limit reached", "ip", params.SubmitterIP.String())
			return nil, domain.RateLimit(op)
		}
	}

	row, err := s.queries.CreateContact(ctx, repository.CreateContactParams{
		Name:        params.Name,
		Email:       params.Email,
		Phone:       params.Phone,
		Subject:     params.Subject,
		Message:     params.Message,
		SubmitterIp: ip,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save your message")
	}

	metrics.ContactsSubmitted.Inc()
	s.logger.Info("contact submitted", "contact_id", row.ID)

	c := repoContactToDomain(row)

	// The message is already stored; a failed notification only gets logged.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyWait)
	defer cancel()
	if err := s.notifier.NotifyContact(nctx, c); err != nil {
		s.logger.Warn("contact notification failed", "contact_id", c.ID, "error", err)
	}

	return &c, nil
}

func (s *contentService) ListRecentContacts(ctx context.Context, limit int) ([]domain.Contact, error) {
	const op = "content.ListRecentContacts"

	if limit <= 0 {
		limit = DefaultRecentContacts
	}
	rows, err := s.queries.ListRecentContacts(ctx, int32(limit))
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load contacts")
	}

	contacts := make([]domain.Contact, len(rows))
	for i, row := range rows {
		contacts[i] = repoContactToDomain(row)
	}
	return contacts, nil
}

// -----------------------------------------------------------------------------
// Gallery
// -----------------------------------------------------------------------------

func (s *contentService) ListGallery(ctx context.Context) ([]domain.GalleryItem, error) {
	const op = "content.ListGallery"

	rows, err := s.queries.ListGalleryItems(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load gallery")
	}

	items := make([]domain.GalleryItem, len(rows))
	for i, row := range rows {
		items[i] = repoGalleryToDomain(row)
	}
	return items, nil
}

// AddGalleryItem stores an uploaded image.
//
// Flow:
// 1. Check declared size and caption
// 2. Sniff the first bytes; the declared content type is not trusted
// 3. Decode, orient and shrink to fit 1600x1600, re-encode as JPEG
// 4. Store under gallery/{uuid}.jpg
// 5. Insert the row; the stored object is removed if the insert fails
func (s *contentService) AddGalleryItem(ctx context.Context, params domain.GalleryUploadParams, data io.Reader) (*domain.GalleryItem, error) {
	const op = "content.AddGalleryItem"

	if params.Size > MaxGalleryUploadBytes {
		metrics.GalleryUploaded("rejected")
		return nil, domain.Errorf(domain.ETOOLARGE, op, "Image must be smaller than 10 MB")
	}

	params = params.Normalize()
	if len(params.Caption) > domain.MaxCaptionLength {
		metrics.GalleryUploaded("rejected")
		return nil, domain.NewValidationError(op, "caption", "Caption is too long")
	}

	raw, err := io.ReadAll(io.LimitReader(data, MaxGalleryUploadBytes+1))
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read upload")
	}
	if len(raw) > MaxGalleryUploadBytes {
		metrics.GalleryUploaded("rejected")
		return nil, domain.Errorf(domain.ETOOLARGE, op, "Image must be smaller than 10 MB")
	}

	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	if sniffed := storage.SniffImageType(head); !storage.IsAllowedImageType(sniffed) {
		metrics.GalleryUploaded("rejected")
		s.logger.Info("rejected gallery upload", "declared_type", params.ContentType, "sniffed_type", sniffed)
		return nil, domain.Invalid(op, "Please upload a JPEG, PNG, GIF or WebP image.")
	}

	jpeg, width, height, err := s.processor.Prepare(bytes.NewReader(raw), GalleryMaxWidth, GalleryMaxHeight)
	if err != nil {
		metrics.GalleryUploaded("rejected")
		return nil, domain.Wrap(err, domain.EINVALID, op, "The image could not be processed.")
	}

	key := storage.GalleryKey()
	err = s.storage.Put(ctx, key, bytes.NewReader(jpeg), storage.PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: "public, max-age=31536000, immutable",
		MaxSize:      MaxGalleryUploadBytes,
	})
	if err != nil {
		metrics.GalleryUploaded("failed")
		return nil, domain.Internal(err, op, "Failed to store image")
	}

	row, err := s.queries.CreateGalleryItem(ctx, repository.CreateGalleryItemParams{
		ImageUrl: s.storage.URL(key),
		ImageKey: key,
		Caption:  params.Caption,
	})
	if err != nil {
		metrics.GalleryUploaded("failed")
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error("failed to remove orphaned gallery image", "key", key, "error", delErr)
		}
		return nil, domain.Internal(err, op, "Failed to save gallery item")
	}

	metrics.GalleryUploaded("stored")
	s.logger.Info("gallery image added",
		"gallery_id", row.ID,
		"key", key,
		"width", width,
		"height", height,
		"bytes", len(jpeg),
	)

	item := repoGalleryToDomain(row)
	return &item, nil
}

func (s *contentService) DeleteGalleryItem(ctx context.Context, id int64) error {
	const op = "content.DeleteGalleryItem"

	row, err := s.queries.GetGalleryItem(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "gallery item", strconv.FormatInt(id, 10))
		}
		return domain.Internal(err, op, "Failed to load gallery item")
	}

	if err := s.queries.DeleteGalleryItem(ctx, id); err != nil {
		return domain.Internal(err, op, "Failed to delete gallery item")
	}

	if row.ImageKey != "" {
		if err := s.storage.Delete(ctx, row.ImageKey); err != nil {
			s.logger.Error("failed to delete gallery image", "key", row.ImageKey, "error", err)
		}
	}

	s.logger.Info("gallery item deleted", "gallery_id", id)
	return nil
}

// -----------------------------------------------------------------------------
// Testimonials
// -----------------------------------------------------------------------------

func (s *contentService) ListTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	const op = "content.ListTestimonials"

	rows, err := s.queries.ListTestimonials(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load testimonials")
	}

	out := make([]domain.Testimonial, len(rows))
	for i, row := range rows {
		out[i] = repoTestimonialToDomain(row)
	}
	return out, nil
}

func (s *contentService) AddTestimonial(ctx context.Context, params domain.TestimonialParams) (*domain.Testimonial, error) {
	const op = "content.AddTestimonial"

	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateTestimonial(ctx, repository.CreateTestimonialParams{
		AuthorName: params.AuthorName,
		AuthorRole: params.AuthorRole,
		Quote:      params.Quote,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save testimonial")
	}

	s.logger.Info("testimonial added", "testimonial_id", row.ID)

	t := repoTestimonialToDomain(row)
	return &t, nil
}

func (s *contentService) DeleteTestimonial(ctx context.Context, id int64) error {
	const op = "content.DeleteTestimonial"

	if err := s.queries.DeleteTestimonial(ctx, id); err != nil {
		return domain.Internal(err, op, "Failed to delete testimonial")
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// toInet converts an address to a single-host inet value.
func toInet(ip net.IP) pqtype.Inet {
	if ip == nil {
		return pqtype.Inet{}
	}
	if v4 := ip.To4(); v4 != nil {
		return pqtype.Inet{IPNet: net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, Valid: true}
	}
	return pqtype.Inet{IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, Valid: true}
}

func repoContactToDomain(row repository.Contact) domain.Contact {
	c := domain.Contact{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Subject:   row.Subject,
		Message:   row.Message,
		CreatedAt: row.CreatedAt,
	}
	if row.SubmitterIp.Valid {
		c.SubmitterIP = row.SubmitterIp.IPNet.IP
	}
	return c
}

func repoGalleryToDomain(row repository.Gallery) domain.GalleryItem {
	return domain.GalleryItem{
		ID:        row.ID,
		ImageURL:  row.ImageUrl,
		ImageKey:  row.ImageKey,
		Caption:   row.Caption,
		CreatedAt: row.CreatedAt,
	}
}

func repoTestimonialToDomain(row repository.Testimonial) domain.Testimonial {
	return domain.Testimonial{
		ID:         row.ID,
		AuthorName: row.AuthorName,
		AuthorRole: row.AuthorRole,
		Quote:      row.Quote,
		CreatedAt:  row.CreatedAt,
	}
}
