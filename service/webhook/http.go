package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/detectcam/dc-go/service/config"
)

type httpService struct {
	CfgSvc config.IService
	client *http.Client
}

// NewHTTP posts alert payloads as JSON to the configured webhook URL.
func NewHTTP(cfgsvc config.IService) IService {
	return &httpService{
		CfgSvc: cfgsvc,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (svc *httpService) Post(payload map[string]interface{}) error {
	url := svc.CfgSvc.GetWebhookURL()
	if url == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := svc.client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
