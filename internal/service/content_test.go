package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/repository"
	"github.com/carevia/foundation/internal/storage"
)

// =============================================================================
// Mocks
// =============================================================================

type mockQuerier struct {
	repository.Querier // panics on methods a test does not stub

	CountContactsSinceFunc func(ctx context.Context, arg repository.CountContactsSinceParams) (int64, error)
	CreateContactFunc      func(ctx context.Context, arg repository.CreateContactParams) (repository.Contact, error)
	CreateGalleryItemFunc  func(ctx context.Context, arg repository.CreateGalleryItemParams) (repository.Gallery, error)
	GetGalleryItemFunc     func(ctx context.Context, id int64) (repository.Gallery, error)
	DeleteGalleryItemFunc  func(ctx context.Context, id int64) error
	ListGalleryItemsFunc   func(ctx context.Context) ([]repository.Gallery, error)
	CreateTestimonialFunc  func(ctx context.Context, arg repository.CreateTestimonialParams) (repository.Testimonial, error)
}

func (m *mockQuerier) CountContactsSince(ctx context.Context, arg repository.CountContactsSinceParams) (int64, error) {
	if m.CountContactsSinceFunc != nil {
		return m.CountContactsSinceFunc(ctx, arg)
	}
	return 0, nil
}

func (m *mockQuerier) CreateContact(ctx context.Context, arg repository.CreateContactParams) (repository.Contact, error) {
	return m.CreateContactFunc(ctx, arg)
}

func (m *mockQuerier) CreateGalleryItem(ctx context.Context, arg repository.CreateGalleryItemParams) (repository.Gallery, error) {
	return m.CreateGalleryItemFunc(ctx, arg)
}

func (m *mockQuerier) GetGalleryItem(ctx context.Context, id int64) (repository.Gallery, error) {
	return m.GetGalleryItemFunc(ctx, id)
}

func (m *mockQuerier) DeleteGalleryItem(ctx context.Context, id int64) error {
	return m.DeleteGalleryItemFunc(ctx, id)
}

func (m *mockQuerier) ListGalleryItems(ctx context.Context) ([]repository.Gallery, error) {
	return m.ListGalleryItemsFunc(ctx)
}

func (m *mockQuerier) CreateTestimonial(ctx context.Context, arg repository.CreateTestimonialParams) (repository.Testimonial, error) {
	return m.CreateTestimonialFunc(ctx, arg)
}

type mockStorage struct {
	puts    map[string][]byte
	deleted []string
	PutErr  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{puts: map[string][]byte{}}
}

func (m *mockStorage) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	b, _ := io.ReadAll(data)
	m.puts[key] = b
	return nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	b, ok := m.puts[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectInfo{Key: key}, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.puts, key)
	return nil
}

func (m *mockStorage) URL(key string) string {
	return "https://media.example.org/" + key
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func validContact() domain.ContactParams {
	return domain.ContactParams{
		Name:        " Ada Lovelace ",
		Email:       "Ada@Example.com",
		Phone:       "+44 20 7946 0000",
		Subject:     "Volunteering",
		Message:     "I would like to help.",
		SubmitterIP: net.ParseIP("203.0.113.7"),
	}
}

// =============================================================================
// Contacts
// =============================================================================

func TestSubmitContact_ValidationFailsBeforeDatabase(t *testing.T) {
	q := &mockQuerier{
		CountContactsSinceFunc: func(ctx context.Context, arg repository.CountContactsSinceParams) (int64, error) {
			t.Fatal("database must not be queried for invalid input")
			return 0, nil
		},
	}
	svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{}, newTestLogger())

	params := validContact()
	params.Message = "   "

	_, err := svc.SubmitContact(context.Background(), params)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "message")
}

func TestSubmitContact_StoresNormalizedFields(t *testing.T) {
	var got repository.CreateContactParams
	q := &mockQuerier{
		CreateContactFunc: func(ctx context.Context, arg repository.CreateContactParams) (repository.Contact, error) {
			got = arg
			return repository.Contact{ID: 7, Name: arg.Name, Email: arg.Email, SubmitterIp: arg.SubmitterIp}, nil
		},
	}
	svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{}, newTestLogger())

	c, err := svc.SubmitContact(context.Background(), validContact())
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.True(t, got.SubmitterIp.Valid)
	assert.Equal(t, "203.0.113.7/32", got.SubmitterIp.IPNet.String())
	assert.True(t, c.SubmitterIP.Equal(net.ParseIP("203.0.113.7")))
}

func TestSubmitContact_HourlyLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &mockQuerier{
		CountContactsSinceFunc: func(ctx context.Context, arg repository.CountContactsSinceParams) (int64, error) {
			assert.Equal(t, now.Add(-time.Hour), arg.CreatedAt)
			return 5, nil
		},
		CreateContactFunc: func(ctx context.Context, arg repository.CreateContactParams) (repository.Contact, error) {
			t.Fatal("contact must not be stored over the limit")
			return repository.Contact{}, nil
		},
	}
	svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{
		Clock: func() time.Time { return now },
	}, newTestLogger())

	_, err := svc.SubmitContact(context.Background(), validContact())
	assert.Equal(t, domain.ERATELIMIT, domain.ErrorCode(err))
}

type mockNotifier struct {
	NotifyContactFunc func(ctx context.Context, contact domain.Contact) error
}

func (m *mockNotifier) NotifyContact(ctx context.Context, contact domain.Contact) error {
	return m.NotifyContactFunc(ctx, contact)
}

func TestSubmitContact_Notifies(t *testing.T) {
	q := &mockQuerier{
		CreateContactFunc: func(ctx context.Context, arg repository.CreateContactParams) (repository.Contact, error) {
			return repository.Contact{ID: 9, Subject: arg.Subject}, nil
		},
	}

	t.Run("sends the stored contact", func(t *testing.T) {
		var got domain.Contact
		notifier := &mockNotifier{NotifyContactFunc: func(ctx context.Context, c domain.Contact) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			got = c
			return nil
		}}
		svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{Notifier: notifier}, newTestLogger())

		_, err := svc.SubmitContact(context.Background(), validContact())
		require.NoError(t, err)
		assert.Equal(t, int64(9), got.ID)
	})

	t.Run("failure does not fail the submission", func(t *testing.T) {
		notifier := &mockNotifier{NotifyContactFunc: func(ctx context.Context, c domain.Contact) error {
			return errors.New("smtp down")
		}}
		svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{Notifier: notifier}, newTestLogger())

		c, err := svc.SubmitContact(context.Background(), validContact())
		require.NoError(t, err)
		assert.Equal(t, int64(9), c.ID)
	})
}

// =============================================================================
// Gallery
// =============================================================================

func TestAddGalleryItem_Success(t *testing.T) {
	store := newMockStorage()
	var created repository.CreateGalleryItemParams
	q := &mockQuerier{
		CreateGalleryItemFunc: func(ctx context.Context, arg repository.CreateGalleryItemParams) (repository.Gallery, error) {
			created = arg
			return repository.Gallery{ID: 3, ImageUrl: arg.ImageUrl, ImageKey: arg.ImageKey, Caption: arg.Caption}, nil
		},
	}
	svc := NewContentService(q, store, nil, ContentServiceConfig{}, newTestLogger())

	data := testPNG(t, 3200, 800)
	item, err := svc.AddGalleryItem(context.Background(), domain.GalleryUploadParams{
		Filename:    "summer.png",
		ContentType: "image/png",
		Caption:     "  Summer fair  ",
		Size:        int64(len(data)),
	}, bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, int64(3), item.ID)
	assert.Equal(t, "Summer fair", created.Caption)
	assert.True(t, strings.HasPrefix(created.ImageKey, "gallery/"))
	assert.Equal(t, "https://media.example.org/"+created.ImageKey, item.ImageURL)

	stored, ok := store.puts[created.ImageKey]
	require.True(t, ok, "image must be stored")

	img, format, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1600, img.Width)
	assert.Equal(t, 400, img.Height)
}

func TestAddGalleryItem_Rejections(t *testing.T) {
	testCases := []struct {
		name     string
		params   domain.GalleryUploadParams
		data     []byte
		wantCode string
	}{
		{
			name:     "declared too large",
			params:   domain.GalleryUploadParams{Size: MaxGalleryUploadBytes + 1},
			data:     []byte("x"),
			wantCode: domain.ETOOLARGE,
		},
		{
			name:     "html posing as image",
			params:   domain.GalleryUploadParams{ContentType: "image/png", Size: 30},
			data:     []byte("<html><body>hi</body></html>"),
			wantCode: domain.EINVALID,
		},
		{
			name:     "caption too long",
			params:   domain.GalleryUploadParams{Caption: strings.Repeat("a", domain.MaxCaptionLength+1)},
			data:     []byte("x"),
			wantCode: domain.EINVALID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockStorage()
			svc := NewContentService(&mockQuerier{}, store, nil, ContentServiceConfig{}, newTestLogger())

			_, err := svc.AddGalleryItem(context.Background(), tc.params, bytes.NewReader(tc.data))

			require.Error(t, err)
			code := domain.ErrorCode(err)
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				code = domain.EINVALID
			}
			assert.Equal(t, tc.wantCode, code)
			assert.Empty(t, store.puts)
		})
	}
}

func TestAddGalleryItem_RemovesImageWhenInsertFails(t *testing.T) {
	store := newMockStorage()
	q := &mockQuerier{
		CreateGalleryItemFunc: func(ctx context.Context, arg repository.CreateGalleryItemParams) (repository.Gallery, error) {
			return repository.Gallery{}, errors.New("connection reset")
		},
	}
	svc := NewContentService(q, store, nil, ContentServiceConfig{}, newTestLogger())

	data := testPNG(t, 10, 10)
	_, err := svc.AddGalleryItem(context.Background(), domain.GalleryUploadParams{Size: int64(len(data))}, bytes.NewReader(data))

	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.puts)
}

func TestDeleteGalleryItem(t *testing.T) {
	t.Run("missing item", func(t *testing.T) {
		q := &mockQuerier{
			GetGalleryItemFunc: func(ctx context.Context, id int64) (repository.Gallery, error) {
				return repository.Gallery{}, sql.ErrNoRows
			},
		}
		svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{}, newTestLogger())

		err := svc.DeleteGalleryItem(context.Background(), 9)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("removes row and image", func(t *testing.T) {
		store := newMockStorage()
		store.puts["gallery/a.jpg"] = []byte("x")
		deleted := false
		q := &mockQuerier{
			GetGalleryItemFunc: func(ctx context.Context, id int64) (repository.Gallery, error) {
				return repository.Gallery{ID: id, ImageKey: "gallery/a.jpg"}, nil
			},
			DeleteGalleryItemFunc: func(ctx context.Context, id int64) error {
				deleted = true
				return nil
			},
		}
		svc := NewContentService(q, store, nil, ContentServiceConfig{}, newTestLogger())

		require.NoError(t, svc.DeleteGalleryItem(context.Background(), 9))
		assert.True(t, deleted)
		assert.Equal(t, []string{"gallery/a.jpg"}, store.deleted)
	})
}

func TestListGallery_KeepsRepositoryOrder(t *testing.T) {
	q := &mockQuerier{
		ListGalleryItemsFunc: func(ctx context.Context) ([]repository.Gallery, error) {
			return []repository.Gallery{{ID: 9}, {ID: 4}, {ID: 1}}, nil
		},
	}
	svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{}, newTestLogger())

	items, err := svc.ListGallery(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{9, 4, 1}, []int64{items[0].ID, items[1].ID, items[2].ID})
}

// =============================================================================
// Testimonials
// =============================================================================

func TestAddTestimonial(t *testing.T) {
	q := &mockQuerier{
		CreateTestimonialFunc: func(ctx context.Context, arg repository.CreateTestimonialParams) (repository.Testimonial, error) {
			return repository.Testimonial{ID: 1, AuthorName: arg.AuthorName, Quote: arg.Quote}, nil
		},
	}
	svc := NewContentService(q, newMockStorage(), nil, ContentServiceConfig{}, newTestLogger())

	tm, err := svc.AddTestimonial(context.Background(), domain.TestimonialParams{AuthorName: " Grace ", Quote: " Wonderful people. "})
	require.NoError(t, err)
	assert.Equal(t, "Grace", tm.AuthorName)
	assert.Equal(t, "Wonderful people.", tm.Quote)

	_, err = svc.AddTestimonial(context.Background(), domain.TestimonialParams{AuthorName: "Grace"})
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}
