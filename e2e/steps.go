package e2e

import (
	"github.com/cucumber/godog"

	"kycflow/e2e/steps/auth"
	"kycflow/e2e/steps/common"
	"kycflow/e2e/steps/kyc"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	kyc.RegisterSteps(ctx, tc)
}
