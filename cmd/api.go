package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/sesh/internal/services"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/urfave/cli/v3"
)

// Request sends one authenticated request through the session.
//
// Credentials live in an in-memory cookie jar, so a fresh process signs in first when --login and
// --password are given.
func (r *Runner) Request(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = r.config.API.ProtectedPath
	}
	method := strings.ToUpper(cmd.String("method"))
	data := cmd.String("data")

	var body io.Reader
	if data != "" {
		var jsonTest any
		if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
			return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
		}
		body = bytes.NewReader([]byte(data))
	}

	ctrl, err := r.session(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer ctrl.Wait()

	if err := r.login(ctx, cmd, ctrl); err != nil {
		return err
	}
	if !ctrl.IsAuthenticated() {
		return fmt.Errorf("%w: run 'sesh auth login' or pass --login and --password", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.logger.Info("request", "method", method, "path", path)
	resp, err := ctrl.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("%w: session expired, sign in again", shared.ErrNotAuthenticated)
	}

	apiResp, err := services.ReadResponse(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !apiResp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, apiResp.StatusCode, string(apiResp.Body))
	}

	if apiResp.IsJSON {
		return r.writeJSON(apiResp.JSONData, cmd.Bool("pretty"))
	}
	r.output.Write(apiResp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
