package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/counter-devnet/pkg/deployment"
)

const serviceName = "DeployService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the deploy Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// Deploy wraps the service method with logging
func (ls *logService) Deploy(ctx context.Context, tags []string) (resp *DeployResult, err error) {
	start := time.Now()

	ls.logger.Info("Deploy started",
		zap.String("service", serviceName),
		zap.String("method", "Deploy"),
		zap.Strings("tags", tags),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Deploy failed",
				zap.String("service", serviceName),
				zap.String("method", "Deploy"),
				zap.Strings("tags", tags),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Deploy completed",
				zap.String("service", serviceName),
				zap.String("method", "Deploy"),
				zap.String("network", resp.Network),
				zap.Strings("ran", resp.Ran),
				zap.Int("deployments", len(resp.Deployments)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Deploy(ctx, tags)
}

// ListDeployments wraps the service method with logging
func (ls *logService) ListDeployments(ctx context.Context, network string) (resp []*deployment.Deployment, err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Error("ListDeployments failed",
				zap.String("service", serviceName),
				zap.String("method", "ListDeployments"),
				zap.String("network", network),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		ls.logger.Debug("ListDeployments completed",
			zap.String("service", serviceName),
			zap.String("method", "ListDeployments"),
			zap.String("network", network),
			zap.Int("count", len(resp)),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.ListDeployments(ctx, network)
}

// GetDeployment wraps the service method with logging
func (ls *logService) GetDeployment(ctx context.Context, network, name string) (resp *deployment.Deployment, err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Warn("GetDeployment failed",
				zap.String("service", serviceName),
				zap.String("method", "GetDeployment"),
				zap.String("network", network),
				zap.String("name", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		ls.logger.Debug("GetDeployment completed",
			zap.String("service", serviceName),
			zap.String("method", "GetDeployment"),
			zap.String("network", network),
			zap.String("name", name),
			zap.String("address", resp.Address.Hex()),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.GetDeployment(ctx, network, name)
}

// Accounts wraps the service method with logging
func (ls *logService) Accounts(ctx context.Context) (resp []*Account, err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Error("Accounts failed",
				zap.String("service", serviceName),
				zap.String("method", "Accounts"),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		ls.logger.Debug("Accounts completed",
			zap.String("service", serviceName),
			zap.String("method", "Accounts"),
			zap.Int("count", len(resp)),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.Accounts(ctx)
}
