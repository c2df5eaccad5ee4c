package repo

import (
	"context"
	"time"

	"github.com/flowfin/auth-service/internal/models"
)

// RevokeJTI inserts a revocation marker for jti. Revoking an already revoked
// jti is a no-op.
func (r *GormRepo) RevokeJTI(ctx context.Context, jti string) error {
	rec := models.RevokedToken{JTI: jti}
	return r.DB.WithContext(ctx).Where("jti = ?", jti).FirstOrCreate(&rec).Error
}

func (r *GormRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PruneRevoked deletes revocation markers older than olderThan. Markers may
// be dropped once every token that could carry their jti has expired, so the
// caller should pass at least the refresh TTL.
func (r *GormRepo) PruneRevoked(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tx := r.DB.WithContext(ctx).Where("revoked_at < ?", cutoff).Delete(&models.RevokedToken{})
	return tx.RowsAffected, tx.Error
}
