package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "autopost/configs"
	"autopost/internal/models"
	"autopost/internal/repository"
	"autopost/internal/transfer"
	"autopost/pkg/utils"
)

type InstagramService interface {
	InstagramCallback(ctx context.Context, code string, userID int64) (err error)
	PublishMedia(ctx context.Context, acc *models.Account, entry *models.QueueEntry, mediaURL string) error
}

type instagramService struct {
	cfg config.Config
	a   repository.AccountRepository
}

func NewInstagramService(cfg config.Config, a repository.AccountRepository) InstagramService {
	return &instagramService{
		cfg: cfg,
		a:   a,
	}
}

func (ig *instagramService) InstagramCallback(ctx context.Context, code string, userID int64) (err error) {

	if code == "" {
		err = errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	if userID == 0 {
		err = errors.New("User not found")
		slog.Info(err.Error())
		return err
	}

	token, err := ig.ExchangeCodeForToken(ctx, code)
	if err != nil {
		return err
	}

	userInfo, err := ig.GetInstagramUserInfo(token.LongLivedToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	accountInfo := &models.Account{
		UserID:          userID,
		AccountID:       userInfo.UserID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Username,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedAccessToken,
		TokenExpiresAt:  token.ExpiresAt,
	}

	_, err = ig.a.Create(ctx, nil, models.PlatformInstagram, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (ig *instagramService) getShortLivedToken(code string) (*transfer.InstagramToken, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.InstagramClientID)
	data.Set("client_secret", ig.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.InstagramRedirectURI)
	data.Set("code", code)

	resp, err := http.Post(
		"https://api.instagram.com/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		UserID      int    `json:"user_id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %v", err)
	}

	token := &transfer.InstagramToken{
		UserID:      result.UserID,
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	return token, nil
}

func (ig *instagramService) getLongLivedToken(shortLivedToken string) (*struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}, error) {
	url := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		ig.cfg.InstagramClientSecret,
		shortLivedToken,
	)

	resp, err := http.Get(url)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get long-lived token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode long-lived token response: %v", err)
	}

	return &struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
	}{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

func (ig *instagramService) ExchangeCodeForToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {

	shortLivedToken, err := ig.getShortLivedToken(code)
	if err != nil {
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}

	longLivedToken, err := ig.getLongLivedToken(shortLivedToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %v", err)
	}

	token := &transfer.InstagramToken{
		AccessToken:    longLivedToken.AccessToken,
		LongLivedToken: longLivedToken.AccessToken,
		ExpiresAt:      longLivedToken.ExpiresAt,
	}

	return token, nil
}

func (ig *instagramService) GetInstagramUserInfo(accessToken string) (*transfer.InstagramUserInfo, error) {
	var userInfo transfer.InstagramUserInfo

	reqUrl := fmt.Sprintf(
		"https://graph.instagram.com/me?fields=id,username,name,account_type,profile_picture_url&access_token=%s",
		accessToken,
	)

	resp, err := http.Get(reqUrl)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

// PublishMedia uploads one queue entry as a reel: create a media container
// pointing at mediaURL, wait until Instagram has ingested it, then publish.
func (ig *instagramService) PublishMedia(ctx context.Context, acc *models.Account, entry *models.QueueEntry, mediaURL string) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(ig.cfg.SecretKey))
	if err != nil {
		return err
	}

	containerID, err := ig.createReelContainer(ctx, acc.AccountID, mediaURL, entry.Caption, accessToken)
	if err != nil {
		return fmt.Errorf("failed to create media container: %w", err)
	}

	if err := ig.waitForContainer(ctx, containerID, accessToken); err != nil {
		return err
	}

	if err := ig.publishContainer(ctx, acc.AccountID, containerID, accessToken); err != nil {
		return fmt.Errorf("failed to publish media: %w", err)
	}

	return nil
}

func (ig *instagramService) createReelContainer(ctx context.Context, accountID, mediaURL, caption, accessToken string) (string, error) {
	reqUrl := fmt.Sprintf("https://graph.instagram.com/v21.0/%s/media", accountID)

	payload := map[string]interface{}{
		"media_type":   "REELS",
		"video_url":    mediaURL,
		"caption":      caption,
		"access_token": accessToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqUrl, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var igErr transfer.InstagramErrorResponse
		if err := json.Unmarshal(respBody, &igErr); err == nil && igErr.Error.Message != "" {
			return "", fmt.Errorf("error response from Instagram: %s (code %d)", igErr.Error.Message, igErr.Error.Code)
		}
		return "", fmt.Errorf("unexpected status code from Instagram: %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no container ID returned from Instagram")
	}
	return result.ID, nil
}

// waitForContainer polls the container status until Instagram finishes
// processing the video. Reels regularly take tens of seconds to ingest.
func (ig *instagramService) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	reqUrl := fmt.Sprintf(
		"https://graph.instagram.com/v21.0/%s?fields=status_code&access_token=%s",
		containerID, accessToken,
	)

	for attempt := 0; attempt < 20; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", reqUrl, nil)
		if err != nil {
			return fmt.Errorf("error creating request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request error: %w", err)
		}

		var result struct {
			StatusCode string `json:"status_code"`
		}
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("error parsing status response: %w", err)
		}

		switch result.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return fmt.Errorf("Instagram failed to process container %s", containerID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}

	return fmt.Errorf("timed out waiting for container %s to finish processing", containerID)
}

func (ig *instagramService) publishContainer(ctx context.Context, accountID, containerID, accessToken string) error {
	reqUrl := fmt.Sprintf("https://graph.instagram.com/v21.0/%s/media_publish", accountID)
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqUrl, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	return nil
}
