package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

//ErrTranslation indicates a failed or empty translation
var ErrTranslation = errors.New("translation failed")

//DefaultModel is used if translator.model is not set
const DefaultModel = "gemini-3-pro-preview"

//Client translates subtitle batches with Gemini generateContent API
type Client struct {
	httpclient *retryablehttp.Client
	url        string
	key        string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

//NewClient creates a client from translator.* config
func NewClient() (*Client, error) {
	key := cmdapp.Config.GetString("translator.key")
	if key == "" {
		return nil, errors.New("no translator.key setting provided")
	}
	base, err := utils.GetURLFromConfig("translator.url")
	if err != nil {
		return nil, err
	}
	model := cmdapp.Config.GetString("translator.model")
	if model == "" {
		model = DefaultModel
	}
	res := newClient(utils.URLJoin(base, "models", model+":generateContent"), key)
	if t := cmdapp.Config.GetDuration("translator.timeout"); t > 0 {
		res.httpclient.HTTPClient.Timeout = t
	}
	cmdapp.Log.Infof("Translator: %s", utils.URLToLog(res.url))
	return res, nil
}

func newClient(url, key string) *Client {
	res := &Client{url: url, key: key}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 3
	res.httpclient.HTTPClient.Timeout = 5 * time.Minute
	res.httpclient.Logger = cmdapp.Log
	return res
}

//Translate sends one subtitle batch for translation
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	b, err := json.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: makePrompt(text)}}}}})
	if err != nil {
		return "", errors.Wrap(err, "can't marshal request")
	}
	req, err := retryablehttp.NewRequest(http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return "", errors.Wrap(err, "can't prepare request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.key)

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "can't call translator")
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return "", errors.Wrapf(ErrTranslation, "%v", err)
	}
	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", errors.Wrap(err, "can't decode response")
	}
	res := cleanOutput(responseText(&gr))
	if res == "" {
		return "", errors.Wrap(ErrTranslation, "empty response")
	}
	return res, nil
}

func responseText(gr *generateResponse) string {
	if len(gr.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
