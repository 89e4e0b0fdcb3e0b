package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	config "autopost/configs"
	"autopost/internal/models"
	"autopost/internal/repository"
	"autopost/pkg/utils"
)

const (
	GOOGLE_AUTH_URL    = "https://accounts.google.com/o/oauth2/v2/auth"
	INSTAGRAM_AUTH_URL = "https://www.instagram.com/oauth/authorize"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, tokenString string) string
	List(ctx context.Context, userID int64) (map[string][]*models.Account, error)
	Delete(ctx context.Context, userID int64, platform string, accountID int64) error
}

type platformService struct {
	cfg config.Config
	a   repository.AccountRepository
}

func NewPlatformService(cfg config.Config, a repository.AccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		a:   a,
	}
}

func (s *platformService) GetAuthURL(ctx context.Context, platform, tokenString string) string {
	switch platform {
	case models.PlatformInstagram:
		authURL := INSTAGRAM_AUTH_URL
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", tokenString)

		fullURL := fmt.Sprintf("%s?%s", authURL, params.Encode())
		return fullURL

	case models.PlatformYoutube:
		authURL := GOOGLE_AUTH_URL
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/youtube.upload")
		params.Add("state", tokenString)
		params.Add("access_type", "offline")

		fullURL := fmt.Sprintf("%s?%s", authURL, params.Encode())
		return fullURL

	default:
		return ""
	}
}

func (s *platformService) List(ctx context.Context, userID int64) (map[string][]*models.Account, error) {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts := make(map[string][]*models.Account, len(models.Platforms))
	for _, platform := range models.Platforms {
		list, err := s.a.ListByUserID(ctx, platform, userID)
		if err != nil {
			return nil, fmt.Errorf("Error getting %s accounts", platform)
		}
		accounts[platform] = list
	}

	return accounts, nil
}

func (s *platformService) Delete(ctx context.Context, userID int64, platform string, accountID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	if accountID == 0 {
		err = errors.New("AccountID is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.a.CheckByUserID(ctx, platform, accountID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("Account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	if platform == models.PlatformYoutube {
		accountInfo, err := s.a.GetByID(ctx, platform, accountID)
		if err != nil || accountInfo == nil {
			return fmt.Errorf("Unable to get account info")
		}

		decryptedAccessToken, err := utils.Decrypt(accountInfo.AccessToken, []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}

		if err := RevokeGoogleAccess(decryptedAccessToken); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("Unable to revoke access")
		}
	}

	err = s.a.Remove(ctx, platform, accountID)
	if err != nil {
		return fmt.Errorf("Error removing account Info")
	}

	return nil
}

func RevokeGoogleAccess(accessToken string) error {
	url := "https://oauth2.googleapis.com/revoke"
	payload := []byte("token=" + accessToken)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
