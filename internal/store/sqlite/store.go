// Package sqlite persists portfolio snapshots and position lifecycle events
// with Gorm over SQLite.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"polytrader/internal/model"
	storemodel "polytrader/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&storemodel.PositionModel{}, &storemodel.PortfolioStateModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Single writer; keep the pool tiny to avoid SQLite lock contention.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) AppendPortfolioState(ctx context.Context, state model.PortfolioState) error {
	row := storemodel.PortfolioStateModel{
		Cycle:         state.Cycle,
		Timestamp:     state.Timestamp.Unix(),
		Cash:          state.Cash,
		TotalValue:    state.TotalValue,
		PnLPct:        state.PnLPct,
		RealizedPnL:   state.RealizedPnL,
		OpenPositions: state.OpenPositions,
	}
	if len(state.Marks) > 0 {
		raw, err := json.Marshal(state.Marks)
		if err != nil {
			return fmt.Errorf("encoding marks failed: %w", err)
		}
		row.MarksJSON = datatypes.JSON(raw)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("appending portfolio state failed: %w", err)
	}
	return nil
}

func (s *Store) AppendPosition(ctx context.Context, pos model.Position) error {
	row := toPositionRow(pos)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("appending position failed: %w", err)
	}
	return nil
}

// ClosePosition is the single permitted update-in-place: the OPEN -> CLOSED
// transition, keyed by position id.
func (s *Store) ClosePosition(ctx context.Context, pos model.Position) error {
	updates := map[string]any{
		"exit_price": pos.ExitPrice,
		"exit_time":  pos.ExitTime.Unix(),
		"pnl":        pos.PnL,
		"status":     string(model.PositionClosed),
	}
	res := s.db.WithContext(ctx).Model(&storemodel.PositionModel{}).
		Where("id = ?", pos.ID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("closing position failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no position row for id %s", pos.ID)
	}
	return nil
}

func (s *Store) ListOpenPositions(ctx context.Context) ([]model.Position, error) {
	var rows []storemodel.PositionModel
	if err := s.db.WithContext(ctx).
		Where("status = ?", string(model.PositionOpen)).
		Order("entry_time asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Position, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromPositionRow(row))
	}
	return out, nil
}

func toPositionRow(pos model.Position) storemodel.PositionModel {
	row := storemodel.PositionModel{
		ID:         pos.ID,
		TokenID:    pos.TokenID,
		MatchSlug:  pos.MatchSlug,
		Outcome:    pos.Outcome,
		Side:       string(pos.Side),
		EntryPrice: pos.EntryPrice,
		Shares:     pos.Shares,
		CostBasis:  pos.CostBasis,
		EntryTime:  pos.EntryTime.Unix(),
		Reasoning:  pos.Reasoning,
		Status:     string(pos.Status),
	}
	if !pos.ExitTime.IsZero() {
		row.ExitPrice = pos.ExitPrice
		row.ExitTime = pos.ExitTime.Unix()
		row.PnL = pos.PnL
	}
	return row
}

func fromPositionRow(row storemodel.PositionModel) model.Position {
	pos := model.Position{
		ID:         row.ID,
		TokenID:    row.TokenID,
		MatchSlug:  row.MatchSlug,
		Outcome:    row.Outcome,
		Side:       model.ParseSide(row.Side),
		EntryPrice: row.EntryPrice,
		Shares:     row.Shares,
		CostBasis:  row.CostBasis,
		EntryTime:  time.Unix(row.EntryTime, 0),
		Reasoning:  row.Reasoning,
		Status:     model.PositionStatus(row.Status),
	}
	if row.ExitTime > 0 {
		pos.ExitPrice = row.ExitPrice
		pos.ExitTime = time.Unix(row.ExitTime, 0)
		pos.PnL = row.PnL
	}
	return pos
}
