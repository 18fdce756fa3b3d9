package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewPostgresRepository(db *gorm.DB) (*PostgresRepository, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}
	if err := db.AutoMigrate(&Job{}); err != nil {
		return nil, fmt.Errorf("failed to migrate jobs table: %w", err)
	}
	return &PostgresRepository{db: db, snowflake: node}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	j := &Job{
		ID:       r.snowflake.Generate().Int64(),
		TaskType: taskType,
		Payload:  payload,
		Status:   StatusPending,
	}

	result := r.db.WithContext(ctx).Create(j)
	if result.Error != nil {
		return nil, result.Error
	}
	return j, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Job, error) {
	var j Job
	result := r.db.WithContext(ctx).First(&j, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &j, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status, err *string) error {
	result := r.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status": status,
		"error":  err,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("job not found")
	}
	return nil
}
