package repository

import (
	"context"
	"time"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/tracing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GenerationsRepository struct {
	db *gorm.DB
}

func NewGenerationsRepository(db *gorm.DB) *GenerationsRepository {
	return &GenerationsRepository{db: db}
}

func (x *GenerationsRepository) LogGeneration(log *tracing.Logger, userID int64, modelID string, txID *string, costBasis string, amount decimal.Decimal, success bool, resultURLs []string, message string) error {
	defer tracing.ProfilePoint(log, "Generations log completed", "repository.generations.log", tracing.ModelId, modelID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	generation := &entities.Generation{
		UserID:     userID,
		ModelID:    modelID,
		TxID:       txID,
		CostBasis:  costBasis,
		Amount:     amount,
		Success:    success,
		ResultURLs: pq.StringArray(resultURLs),
		Message:    message,
	}

	if err := x.db.WithContext(ctx).Create(generation).Error; err != nil {
		log.E("Failed to log generation", tracing.InnerError, err)
		return err
	}

	return nil
}

func (x *GenerationsRepository) GetTotalGenerationsCount(log *tracing.Logger) (int64, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var count int64
	if err := x.db.WithContext(ctx).Model(&entities.Generation{}).Count(&count).Error; err != nil {
		log.E("Failed to count generations", tracing.InnerError, err)
		return 0, err
	}
	return count, nil
}

func (x *GenerationsRepository) GetTotalRevenue(log *tracing.Logger) (decimal.Decimal, error) {
	defer tracing.ProfilePoint(log, "Generations total revenue completed", "repository.generations.revenue")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var total decimal.NullDecimal
	err := x.db.WithContext(ctx).Model(&entities.Generation{}).
		Where("success AND cost_basis = ?", "charged").
		Select("SUM(amount)").Scan(&total).Error
	if err != nil {
		log.E("Failed to get total revenue", tracing.InnerError, err)
		return decimal.Zero, err
	}

	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (x *GenerationsRepository) GetRecentByUser(log *tracing.Logger, userID int64, limit int) ([]*entities.Generation, error) {
	defer tracing.ProfilePoint(log, "Generations recent by user completed", "repository.generations.recent", tracing.UserId, userID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var generations []*entities.Generation
	err := x.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&generations).Error
	if err != nil {
		log.E("Failed to get recent generations", tracing.InnerError, err)
		return nil, err
	}
	return generations, nil
}
