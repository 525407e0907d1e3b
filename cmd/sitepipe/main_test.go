package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sitepipe/internal/adapters/linear"
	"go.trai.ch/sitepipe/internal/adapters/livereload"
	"go.trai.ch/sitepipe/internal/adapters/telemetry"
	"go.trai.ch/sitepipe/internal/app"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/sitepipe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type actionMap map[domain.ActionKind]ports.Action

func (m actionMap) Actions(domain.BuildConfig) map[domain.ActionKind]ports.Action {
	return m
}

func newProvider(t *testing.T, loader ports.ConfigLoader, log ports.Logger, actions actionMap) ComponentProvider {
	t.Helper()
	ctrl := gomock.NewController(t)

	application := app.New(
		loader,
		actions,
		log,
		linear.NewRenderer(io.Discard, io.Discard),
		telemetry.NewNoOpTracer(io.Discard),
		mocks.NewMockWatcher(ctrl),
		livereload.NewHub(),
	).WithOutput(io.Discard)

	return func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{
			App:    application,
			Logger: log,
		}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := newProvider(t, mocks.NewMockConfigLoader(ctrl), mocks.NewMockLogger(ctrl), nil)

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stdout, io.Discard, provider)
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "sitepipe version")
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, io.Discard, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that errors raised before any task ran are logged.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	log := mocks.NewMockLogger(ctrl)

	loader.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, errors.New("load failed"))
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, "load failed")
	})

	exitCode := run(context.Background(), []string{"run", "styles"}, io.Discard, io.Discard,
		newProvider(t, loader, log, nil))
	assert.Equal(t, 1, exitCode)
}

// TestRun_BuildFailure verifies that task failures exit 1 without being logged twice.
func TestRun_BuildFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	log := mocks.NewMockLogger(ctrl)
	styles := mocks.NewMockAction(ctrl)

	root := t.TempDir()
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(&domain.Task{Name: domain.TaskStyles, Action: domain.ActionStyles}))
	require.NoError(t, g.Validate())

	loader.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&domain.Project{
		Config: domain.DefaultBuildConfig(root),
		Graph:  g,
	}, nil)
	styles.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.RunResult{}, domain.ErrTransformFailed)
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	exitCode := run(context.Background(), []string{"run", "styles"}, io.Discard, io.Discard,
		newProvider(t, loader, log, actionMap{domain.ActionStyles: styles}))
	assert.Equal(t, 1, exitCode)
}
