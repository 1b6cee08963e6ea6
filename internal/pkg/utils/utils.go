package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//URLJoin joins urls with '/'
func URLJoin(urls ...string) string {
	u, err := url.Parse(urls[0])
	if err != nil || u.Host == "" {
		return strings.Join(urls, "/")
	}
	u.Path = path.Join(u.Path, path.Join(urls[1:]...))
	return u.String()
}

//GetURLFromConfig retrieves URL from config and checks it
func GetURLFromConfig(name string) (string, error) {
	return validateConfigURL(cmdapp.Config.GetString(name), name)
}

func validateConfigURL(urlStr, settingName string) (string, error) {
	if urlStr == "" {
		return "", errors.New("no " + settingName + " setting provided")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", errors.Wrap(err, "can't parse url "+urlStr)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("wrong %s url '%s'", settingName, urlStr)
	}
	return u.String(), nil
}

//ErrWrongHTTPCall indicates failure due wrong http call
var ErrWrongHTTPCall = errors.New("wrong http call")

//ValidateResponse returns error if code is not in [200, 299]
func ValidateResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 101))
	trimS := ""
	if len(bodyBytes) > 100 {
		bodyBytes = bodyBytes[:100]
		trimS = "..."
	}
	msg := fmt.Sprintf("wrong response code from server. Code: %d\n%s", resp.StatusCode, string(bodyBytes)+trimS)
	if resp.StatusCode == http.StatusBadRequest {
		return errors.Wrap(ErrWrongHTTPCall, msg)
	}
	return errors.New(msg)
}

//URLToLog removes pass from URL
func URLToLog(link string) string {
	u, err := url.Parse(link)
	if err == nil {
		if u.User != nil {
			u.User = url.UserPassword(u.User.Username(), "xxxx")
		}
		return u.String()
	}
	return link
}
