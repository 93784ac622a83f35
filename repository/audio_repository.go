package repository

import (
	"context"
	"errors"
	"fmt"

	"voxshare/model"

	"gorm.io/gorm"
)

// ErrAudioNotFound is returned when no audio record matches the given id.
var ErrAudioNotFound = errors.New("audio not found")

// AudioRepository 音频数据访问接口
type AudioRepository interface {
	Create(ctx context.Context, audio *model.Audio) error
	GetByID(ctx context.Context, id int64) (*model.Audio, error)
	GetWithOwner(ctx context.Context, id int64) (*model.PublicAudio, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Audio, error)
	ListPublic(ctx context.Context) ([]*model.PublicAudio, error)
	Delete(ctx context.Context, id int64) error
	IncrementPlays(ctx context.Context, id int64) (*model.Audio, error)
	SetWhatsappLink(ctx context.Context, id int64, link string) error
}

// gormAudioRepository GORM 实现
type gormAudioRepository struct {
	db *gorm.DB
}

// NewGormAudioRepository 创建 GORM 音频仓库
func NewGormAudioRepository(db *gorm.DB) AudioRepository {
	return &gormAudioRepository{db: db}
}

// Create 新增音频记录
func (r *gormAudioRepository) Create(ctx context.Context, audio *model.Audio) error {
	if err := r.db.WithContext(ctx).Create(audio).Error; err != nil {
		return fmt.Errorf("failed to create audio: %w", err)
	}
	return nil
}

// GetByID 根据ID获取音频
func (r *gormAudioRepository) GetByID(ctx context.Context, id int64) (*model.Audio, error) {
	var audio model.Audio
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&audio).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAudioNotFound
		}
		return nil, fmt.Errorf("failed to get audio %d: %w", id, err)
	}
	return &audio, nil
}

// GetWithOwner 根据ID获取音频及所有者公开信息
func (r *gormAudioRepository) GetWithOwner(ctx context.Context, id int64) (*model.PublicAudio, error) {
	var audio model.PublicAudio
	err := r.db.WithContext(ctx).Table("audios").
		Select("audios.*, users.username AS username, COALESCE(users.profile_picture, '') AS profile_picture").
		Joins("JOIN users ON users.id = audios.user_id").
		Where("audios.id = ?", id).
		Take(&audio).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAudioNotFound
		}
		return nil, fmt.Errorf("failed to get audio %d with owner: %w", id, err)
	}
	return &audio, nil
}

// ListByUser 获取用户自己的音频，按创建时间倒序
func (r *gormAudioRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Audio, error) {
	audios := make([]*model.Audio, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&audios).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audios for user %d: %w", userID, err)
	}
	return audios, nil
}

// ListPublic 获取所有公开音频及所有者信息，按创建时间倒序
func (r *gormAudioRepository) ListPublic(ctx context.Context) ([]*model.PublicAudio, error) {
	feed := make([]*model.PublicAudio, 0)
	err := r.db.WithContext(ctx).Table("audios").
		Select("audios.*, users.username AS username, COALESCE(users.profile_picture, '') AS profile_picture").
		Joins("JOIN users ON users.id = audios.user_id").
		Where("audios.is_public = ?", true).
		Order("audios.created_at DESC").
		Find(&feed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public audios: %w", err)
	}
	return feed, nil
}

// Delete 永久删除音频记录
func (r *gormAudioRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Audio{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete audio %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAudioNotFound
	}
	return nil
}

// IncrementPlays 原子地将播放计数加一并返回更新后的记录
func (r *gormAudioRepository) IncrementPlays(ctx context.Context, id int64) (*model.Audio, error) {
	res := r.db.WithContext(ctx).Model(&model.Audio{}).
		Where("id = ?", id).
		UpdateColumn("plays", gorm.Expr("plays + ?", 1))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to increment plays for audio %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAudioNotFound
	}
	return r.GetByID(ctx, id)
}

// SetWhatsappLink 保存生成的分享链接，覆盖旧值
func (r *gormAudioRepository) SetWhatsappLink(ctx context.Context, id int64, link string) error {
	res := r.db.WithContext(ctx).Model(&model.Audio{}).
		Where("id = ?", id).
		UpdateColumn("whatsapp_link", link)
	if res.Error != nil {
		return fmt.Errorf("failed to set whatsapp link for audio %d: %w", id, res.Error)
	}
	// MySQL reports zero affected rows when the stored link is unchanged, so
	// existence is the caller's concern here.
	return nil
}
