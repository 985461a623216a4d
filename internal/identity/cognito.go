// Package identity authenticates applicants against a Cognito user pool and
// verifies bearer tokens on incoming requests.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/apperr"
	"github.com/visamate/visamate/internal/model"
)

// Provider issues tokens for a username and password or a refresh token.
type Provider interface {
	Authenticate(ctx context.Context, username, password string) (*model.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*model.Tokens, error)
}

// CognitoAPI is the subset of the Cognito client used here.
type CognitoAPI interface {
	AdminInitiateAuth(ctx context.Context, params *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
}

// Cognito authenticates with the admin auth flows of a user pool app client.
type Cognito struct {
	api        CognitoAPI
	userPoolID string
	clientID   string
}

// NewCognito builds a provider from a loaded AWS config.
func NewCognito(cfg aws.Config, userPoolID, clientID string) *Cognito {
	return NewCognitoWithClient(cip.NewFromConfig(cfg), userPoolID, clientID)
}

// NewCognitoWithClient builds a provider from an explicit client.
func NewCognitoWithClient(api CognitoAPI, userPoolID, clientID string) *Cognito {
	return &Cognito{api: api, userPoolID: userPoolID, clientID: clientID}
}

// Authenticate runs ADMIN_NO_SRP_AUTH.
func (c *Cognito) Authenticate(ctx context.Context, username, password string) (*model.Tokens, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperr.Validation("login", "credentials", "username and password are required")
	}
	return c.initiate(ctx, "login", types.AuthFlowTypeAdminNoSrpAuth, map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	})
}

// Refresh runs REFRESH_TOKEN_AUTH. Cognito does not rotate the refresh
// token, so the caller's token is echoed back.
func (c *Cognito) Refresh(ctx context.Context, refreshToken string) (*model.Tokens, error) {
	if refreshToken == "" {
		return nil, apperr.Validation("refresh", "refresh_token", "is required")
	}
	tok, err := c.initiate(ctx, "refresh", types.AuthFlowTypeRefreshTokenAuth, map[string]string{
		"REFRESH_TOKEN": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

func (c *Cognito) initiate(ctx context.Context, op string, flow types.AuthFlowType, params map[string]string) (*model.Tokens, error) {
	out, err := c.api.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId:     aws.String(c.userPoolID),
		ClientId:       aws.String(c.clientID),
		AuthFlow:       flow,
		AuthParameters: params,
	})
	if err != nil {
		var notAuth *types.NotAuthorizedException
		var noUser *types.UserNotFoundException
		if errors.As(err, &notAuth) || errors.As(err, &noUser) {
			return nil, apperr.Unauthorized(op, "invalid credentials")
		}
		return nil, apperr.Upstream(op, "cognito", "", eris.Wrap(err, "identity: initiate auth"))
	}
	if out.AuthenticationResult == nil {
		// MFA or a forced password change; the wizard does not drive challenges.
		return nil, apperr.Unauthorized(op, "challenge required: "+string(out.ChallengeName))
	}

	res := out.AuthenticationResult
	return &model.Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		IDToken:      aws.ToString(res.IdToken),
		TokenType:    aws.ToString(res.TokenType),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}
