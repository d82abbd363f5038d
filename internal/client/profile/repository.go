// Package profile mediates every read and write of the user's profile record
// and avatar image.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/objects"
	"github.com/dmitrijs2005/wellbeing/internal/client/records"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/imagex"
	"github.com/dmitrijs2005/wellbeing/internal/logging"
)

// Store is the repository contract the session controller depends on.
type Store interface {
	Fetch(ctx context.Context, userID string) (*models.ProfileRecord, error)
	Update(ctx context.Context, userID string, patch models.ProfilePatch) error
	UploadAvatar(ctx context.Context, userID string, image []byte) (string, error)
}

type Repository struct {
	records records.Store
	objects objects.Store
	bucket  string
	logger  logging.Logger
}

var _ Store = (*Repository)(nil)

func NewRepository(rs records.Store, obs objects.Store, bucket string, logger logging.Logger) *Repository {
	if bucket == "" {
		bucket = common.AvatarsBucket
	}
	return &Repository{
		records: rs,
		objects: obs,
		bucket:  bucket,
		logger:  logger.With("component", "profile"),
	}
}

// AvatarPath is the object key of a user's avatar. It depends on the user id
// only, so a new upload replaces the previous blob.
func AvatarPath(userID string) string {
	return userID + "/avatar.jpg"
}

// Fetch returns common.ErrorNotFound when the user has no row and
// common.ErrorTransient when the store is unreachable.
func (r *Repository) Fetch(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	return r.records.Get(ctx, userID)
}

// Update validates patch and sends it. A rejected patch never reaches the
// record store.
func (r *Repository) Update(ctx context.Context, userID string, patch models.ProfilePatch) error {
	if len(patch) == 0 {
		return nil
	}
	if err := ValidatePatch(patch); err != nil {
		return err
	}
	return r.records.Update(ctx, userID, patch)
}

// UploadAvatar normalises image, stores it at AvatarPath(userID) with upsert
// and saves the public URL on the profile.
//
// When the blob is stored but the URL can't be saved, the URL is returned
// together with an error wrapping common.ErrAvatarNotPersisted. Calling
// UploadAvatar again with the same bytes is safe.
func (r *Repository) UploadAvatar(ctx context.Context, userID string, image []byte) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", common.ErrorValidation)
	}

	data, err := imagex.NormalizeAvatar(image)
	if err != nil {
		return "", err
	}

	obj := objects.Object{
		Bucket:      r.bucket,
		Path:        AvatarPath(userID),
		Data:        data,
		ContentType: imagex.ContentType,
		Fingerprint: imagex.Fingerprint(data),
	}
	if err := r.objects.Put(ctx, obj, true); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	url, err := r.objects.PublicURL(obj.Bucket, obj.Path)
	if err != nil {
		return "", fmt.Errorf("avatar url: %w", err)
	}

	if err := r.Update(ctx, userID, models.ProfilePatch{models.FieldAvatarURL: url}); err != nil {
		r.logger.Warn(ctx, "avatar stored but profile not updated", "user_id", userID, "error", err)
		return url, fmt.Errorf("%w: %w", common.ErrAvatarNotPersisted, err)
	}

	r.logger.Info(ctx, "avatar updated", "user_id", userID, "fingerprint", obj.Fingerprint)
	return url, nil
}

// ValidatePatch rejects read-only columns first, whatever else the patch
// carries, then checks the type and value of each writable field.
func ValidatePatch(patch models.ProfilePatch) error {
	fields := patch.Fields()

	for _, f := range fields {
		switch f {
		case models.FieldID, models.FieldEmail, models.FieldRole:
			return fmt.Errorf("%w: %s", common.ErrReadOnlyField, f)
		}
	}

	for _, f := range fields {
		v := patch[f]
		switch f {
		case models.FieldUsername:
			s, ok := v.(string)
			if !ok {
				return typeError(f, v)
			}
			if strings.TrimSpace(s) == "" {
				return common.ErrEmptyUsername
			}
		case models.FieldGender:
			g, ok := v.(models.Gender)
			if !ok {
				return typeError(f, v)
			}
			if !g.Valid() {
				return common.ErrInvalidGender
			}
		case models.FieldDateOfBirth:
			if _, ok := v.(time.Time); !ok {
				return typeError(f, v)
			}
		case models.FieldAvatarURL:
			if _, ok := v.(string); !ok {
				return typeError(f, v)
			}
		default:
			return fmt.Errorf("%w: %s", common.ErrUnknownField, f)
		}
	}

	return nil
}

func typeError(field string, v any) error {
	return fmt.Errorf("%w: %s has unexpected type %T", common.ErrorValidation, field, v)
}
