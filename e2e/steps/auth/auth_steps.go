package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	SetAccessToken(token string)
	ClearAccessToken()
	SetCredentials(email, password string)
	GetEmail() string
	GetPassword() string
	SetKycID(kycID string)
	GetKycID() string
}

// RegisterSteps registers registration and login step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I register a new applicant$`, steps.registerNewApplicant)
	ctx.Step(`^I register again with the same email$`, steps.registerSameEmail)
	ctx.Step(`^I log in with my KYC ID$`, steps.loginWithKycID)
	ctx.Step(`^I log in with my email and password "([^"]*)"$`, steps.loginWithEmailAndPassword)
	ctx.Step(`^I am a logged in applicant$`, steps.loggedInApplicant)
	ctx.Step(`^I log out$`, steps.logout)
	ctx.Step(`^I GET "([^"]*)" without a token$`, steps.getWithoutToken)
}

type authSteps struct {
	tc TestContext
}

func randomSuffix() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *authSteps) register(email, mobile, password string) error {
	return s.tc.POST("/auth/register", map[string]string{
		"email":    email,
		"mobile":   mobile,
		"password": password,
	})
}

func (s *authSteps) registerNewApplicant(ctx context.Context) error {
	suffix := randomSuffix()
	email := "applicant-" + suffix + "@example.com"
	password := "secret-" + suffix
	if err := s.register(email, "+91"+suffix, password); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return nil
	}
	kycID, err := s.tc.GetResponseField("kycId")
	if err != nil {
		return err
	}
	s.tc.SetCredentials(email, password)
	s.tc.SetKycID(fmt.Sprint(kycID))
	return nil
}

func (s *authSteps) registerSameEmail(ctx context.Context) error {
	return s.register(s.tc.GetEmail(), "+91"+randomSuffix(), "another-secret")
}

func (s *authSteps) login(body map[string]string) error {
	if err := s.tc.POST("/auth/login", body); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 200 {
		return nil
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(fmt.Sprint(token))
	return nil
}

func (s *authSteps) loginWithKycID(ctx context.Context) error {
	return s.login(map[string]string{"kycId": s.tc.GetKycID(), "password": s.tc.GetPassword()})
}

func (s *authSteps) loginWithEmailAndPassword(ctx context.Context, password string) error {
	return s.login(map[string]string{"email": s.tc.GetEmail(), "password": password})
}

func (s *authSteps) loggedInApplicant(ctx context.Context) error {
	if err := s.registerNewApplicant(ctx); err != nil {
		return err
	}
	if err := s.loginWithKycID(ctx); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("login failed with status %d", s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *authSteps) logout(ctx context.Context) error {
	return s.tc.POST("/auth/logout", nil)
}

func (s *authSteps) getWithoutToken(ctx context.Context, path string) error {
	s.tc.ClearAccessToken()
	return s.tc.GET(path)
}
