package reveal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	httpclient "scoreboard/internal/cli/http"
	"scoreboard/internal/cli/state"
	"scoreboard/internal/scoreboard/service"
)

// RemoteDriver controls a reveal session held by a scoreboard server.
type RemoteDriver struct {
	client  *httpclient.Client
	contest string
	token   string
}

type openResponse struct {
	Token string             `json:"token"`
	View  service.RevealView `json:"view"`
}

func newRemote(baseURL string, timeout time.Duration, contest string) *RemoteDriver {
	d := &RemoteDriver{contest: contest}
	d.client = httpclient.New(baseURL, timeout, func() string { return d.token })
	return d
}

// Connect opens a session on the server for the site unlocked by secret.
func Connect(ctx context.Context, baseURL string, timeout time.Duration, contest, secret string) (*RemoteDriver, service.RevealView, error) {
	d := newRemote(baseURL, timeout, contest)
	var resp openResponse
	path := d.path("/reveal") + "?secret=" + url.QueryEscape(secret)
	if err := d.client.Call(ctx, http.MethodPost, path, &resp); err != nil {
		return nil, service.RevealView{}, err
	}
	d.token = resp.Token
	return d, resp.View, nil
}

// Resume reattaches to a session saved by a previous console.
func Resume(st state.SessionState, timeout time.Duration) *RemoteDriver {
	d := newRemote(st.BaseURL, timeout, st.Contest)
	d.token = st.Token
	return d
}

// State returns what Resume needs to reattach.
func (d *RemoteDriver) State() state.SessionState {
	return state.SessionState{
		BaseURL:  d.client.BaseURL(),
		Contest:  d.contest,
		Token:    d.token,
		OpenedAt: time.Now().UTC(),
	}
}

func (d *RemoteDriver) Name() string {
	return fmt.Sprintf("remote %s at %s", d.contest, d.client.BaseURL())
}

func (d *RemoteDriver) View(ctx context.Context) (service.RevealView, error) {
	var v service.RevealView
	err := d.client.Call(ctx, http.MethodGet, d.path("/reveal"), &v)
	return v, err
}

func (d *RemoteDriver) Act(ctx context.Context, action string, n int) (service.RevealView, error) {
	var v service.RevealView
	path := d.path("/reveal/"+url.PathEscape(action)) + fmt.Sprintf("?n=%d", n)
	err := d.client.Call(ctx, http.MethodPost, path, &v)
	return v, err
}

func (d *RemoteDriver) Close(ctx context.Context) error {
	return d.client.Call(ctx, http.MethodDelete, d.path("/reveal"), nil)
}

func (d *RemoteDriver) path(suffix string) string {
	return "/api/v1/contests/" + url.PathEscape(d.contest) + suffix
}
