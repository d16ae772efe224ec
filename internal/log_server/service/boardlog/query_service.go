package boardlog

import (
	"context"
	"time"

	"github.com/willcgage/wirelessboard/internal/boardcfg"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

const timeout = 10 * time.Second

// Metadata is the filter vocabulary and logging settings piggybacked on
// every page response and served from the settings endpoint. Clients build
// their filter controls from it instead of hard-coding level names.
type Metadata struct {
	Levels   []string
	Sources  []string
	Settings logstore.Settings
}

type BoardLogQueryService interface {
	GetPage(ctx context.Context, params logstore.PageParams) (logstore.Page, error)
	Metadata() Metadata
	UpdateSettings(patch logstore.SettingsPatch) (logstore.Settings, error)
	Purge() error
}

type BoardLogService struct {
	store    *logstore.Store
	settings *boardcfg.SettingsManager
	logger   *zap.Logger
}

func NewBoardLogService(
	store *logstore.Store,
	settings *boardcfg.SettingsManager,
	logger *zap.Logger,
) *BoardLogService {
	return &BoardLogService{
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

func (bls *BoardLogService) GetPage(
	ctx context.Context,
	params logstore.PageParams,
) (logstore.Page, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	page, err := bls.store.ReadPage(queryCtx, params)
	if err != nil {
		bls.logger.Error("Error when reading page from the log store", zap.Error(err))
		return logstore.Page{}, err
	}
	return page, nil
}

func (bls *BoardLogService) Metadata() Metadata {
	return Metadata{
		Levels:   logstore.LevelNames(),
		Sources:  logstore.Sources(),
		Settings: bls.settings.Current(),
	}
}

func (bls *BoardLogService) UpdateSettings(patch logstore.SettingsPatch) (logstore.Settings, error) {
	return bls.settings.Update(patch)
}

func (bls *BoardLogService) Purge() error {
	if err := bls.store.Purge(); err != nil {
		bls.logger.Error("Error when purging the log store", zap.Error(err))
		return err
	}
	return nil
}
