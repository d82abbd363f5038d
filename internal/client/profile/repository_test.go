package profile

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/objects"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecords struct {
	mu        sync.Mutex
	rows      map[string]*models.ProfileRecord
	getErr    error
	updateErr error
	updates   []models.ProfilePatch
}

func (f *fakeRecords) Get(ctx context.Context, id string) (*models.ProfileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p.Clone(), nil
}

func (f *fakeRecords) Update(ctx context.Context, id string, patch models.ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch)
	if f.updateErr != nil {
		return f.updateErr
	}
	if p, ok := f.rows[id]; ok {
		p.Apply(patch)
	}
	return nil
}

type fakeObjects struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	puts   int
	putErr error
}

func (f *fakeObjects) Put(ctx context.Context, obj objects.Object, upsert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	key := obj.Bucket + "/" + obj.Path
	if _, ok := f.blobs[key]; ok && !upsert {
		return objects.ErrExists
	}
	f.blobs[key] = obj.Data
	return nil
}

func (f *fakeObjects) PublicURL(bucket, path string) (string, error) {
	return url.JoinPath("https://cdn.example.com", bucket, path)
}

func newFixture() (*Repository, *fakeRecords, *fakeObjects) {
	rs := &fakeRecords{rows: map[string]*models.ProfileRecord{
		"u1": {ID: "u1", Email: "u1@example.com", Role: models.RoleMember, Username: "alice"},
	}}
	obs := &fakeObjects{blobs: map[string][]byte{}}
	return NewRepository(rs, obs, common.AvatarsBucket, logging.Nop()), rs, obs
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		img.Set(x, x, color.RGBA{200, 10, 10, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	r, rs, _ := newFixture()
	ctx := context.Background()

	p, err := r.Fetch(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	_, err = r.Fetch(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	rs.getErr = common.ErrorTransient
	_, err = r.Fetch(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorTransient)
}

func TestUpdate_ReadOnlyFieldsNeverReachStore(t *testing.T) {
	for _, field := range []string{models.FieldRole, models.FieldID, models.FieldEmail} {
		for _, v := range []any{"admin", models.RoleAdmin, "", nil, 1} {
			r, rs, _ := newFixture()
			err := r.Update(context.Background(), "u1", models.ProfilePatch{
				field:                v,
				models.FieldUsername: "bob",
			})
			assert.ErrorIs(t, err, common.ErrReadOnlyField, "field %s value %v", field, v)
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Empty(t, rs.updates)
		}
	}
}

func TestUpdate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		patch models.ProfilePatch
		want  error
	}{
		{"empty username", models.ProfilePatch{models.FieldUsername: "  "}, common.ErrEmptyUsername},
		{"username wrong type", models.ProfilePatch{models.FieldUsername: 5}, common.ErrorValidation},
		{"bad gender", models.ProfilePatch{models.FieldGender: models.Gender("other")}, common.ErrInvalidGender},
		{"gender as string", models.ProfilePatch{models.FieldGender: "male"}, common.ErrorValidation},
		{"dob wrong type", models.ProfilePatch{models.FieldDateOfBirth: "2000-01-01"}, common.ErrorValidation},
		{"avatar wrong type", models.ProfilePatch{models.FieldAvatarURL: 3}, common.ErrorValidation},
		{"unknown field", models.ProfilePatch{"nickname": "x"}, common.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rs, _ := newFixture()
			err := r.Update(context.Background(), "u1", tt.patch)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, rs.updates)
		})
	}
}

func TestUpdate_SendsPatch(t *testing.T) {
	r, rs, _ := newFixture()
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	patch := models.ProfilePatch{
		models.FieldUsername:    "bob",
		models.FieldGender:      models.GenderMale,
		models.FieldDateOfBirth: dob,
	}

	require.NoError(t, r.Update(context.Background(), "u1", patch))
	require.Len(t, rs.updates, 1)
	assert.Equal(t, patch, rs.updates[0])
	assert.Equal(t, "bob", rs.rows["u1"].Username)

	require.NoError(t, r.Update(context.Background(), "u1", models.ProfilePatch{}))
	assert.Len(t, rs.updates, 1, "empty patch is a no-op")
}

func TestUpdate_PropagatesStoreErrors(t *testing.T) {
	r, rs, _ := newFixture()
	rs.updateErr = common.ErrorPermission

	err := r.Update(context.Background(), "u1", models.ProfilePatch{models.FieldUsername: "bob"})
	assert.ErrorIs(t, err, common.ErrorPermission)
}

func TestUploadAvatar_Idempotent(t *testing.T) {
	r, rs, obs := newFixture()
	ctx := context.Background()
	img := pngBytes(t)

	url1, err := r.UploadAvatar(ctx, "u1", img)
	require.NoError(t, err)
	url2, err := r.UploadAvatar(ctx, "u1", img)
	require.NoError(t, err)

	assert.Equal(t, url1, url2)
	assert.Equal(t, "https://cdn.example.com/avatars/u1/avatar.jpg", url1)
	assert.Len(t, obs.blobs, 1)
	assert.Equal(t, 2, obs.puts)

	require.NotNil(t, rs.rows["u1"].AvatarURL)
	assert.Equal(t, url1, *rs.rows["u1"].AvatarURL)
}

func TestUploadAvatar_InvalidImageUploadsNothing(t *testing.T) {
	r, rs, obs := newFixture()

	_, err := r.UploadAvatar(context.Background(), "u1", []byte("nope"))
	assert.ErrorIs(t, err, common.ErrInvalidImage)
	assert.Zero(t, obs.puts)
	assert.Empty(t, rs.updates)
}

func TestUploadAvatar_PutFails(t *testing.T) {
	r, rs, obs := newFixture()
	obs.putErr = common.ErrorTransient

	url, err := r.UploadAvatar(context.Background(), "u1", pngBytes(t))
	assert.ErrorIs(t, err, common.ErrorTransient)
	assert.NotErrorIs(t, err, common.ErrAvatarNotPersisted)
	assert.Empty(t, url)
	assert.Empty(t, rs.updates)
}

func TestUploadAvatar_PersistFailsReturnsURL(t *testing.T) {
	r, rs, obs := newFixture()
	boom := errors.New("connection reset")
	rs.updateErr = boom

	url, err := r.UploadAvatar(context.Background(), "u1", pngBytes(t))
	assert.ErrorIs(t, err, common.ErrAvatarNotPersisted)
	assert.ErrorIs(t, err, common.ErrorTransient)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "https://cdn.example.com/avatars/u1/avatar.jpg", url)
	assert.Len(t, obs.blobs, 1)
}

func TestUploadAvatar_RequiresUser(t *testing.T) {
	r, _, obs := newFixture()

	_, err := r.UploadAvatar(context.Background(), "", pngBytes(t))
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Zero(t, obs.puts)
}

func TestNewRepository_DefaultBucket(t *testing.T) {
	r := NewRepository(&fakeRecords{}, &fakeObjects{}, "", logging.Nop())
	assert.Equal(t, common.AvatarsBucket, r.bucket)
}
