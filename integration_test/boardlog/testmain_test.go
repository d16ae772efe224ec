package boardlog

import (
	"log"
	"os"
	"testing"

	"go.uber.org/zap"
)

var env *boardEnv
var logger *zap.Logger

func TestMain(m *testing.M) {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	env, err = startBoardEnv(logger)
	if err != nil {
		logger.Fatal("Failed to start board environment", zap.Error(err))
	}
	code := m.Run()
	env.close()
	os.Exit(code)
}
