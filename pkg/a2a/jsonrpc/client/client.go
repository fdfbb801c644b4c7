// Copyright 2026 © The Quorum Authors
// SPDX-License-Identifier: Apache-2.0

// Package client provides the typed JSON-RPC caller used to invoke another
// agent's endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/pcanals/quorum/pkg/a2a/jsonrpc"
	"github.com/pcanals/quorum/pkg/a2a/server"
	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

// Client wraps the JSON-RPC binding of one remote agent endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
}

// Option configures the client.
type Option func(*Client)

// New creates a client bound to an agent base URL. The RPC path is appended
// when the URL does not already include it.
func New(baseURL string, opts ...Option) *Client {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, jsonrpc.RPCPath) {
		endpoint += jsonrpc.RPCPath
	}
	client := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// WithHeaders sets default headers for each request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = cloneHeaders(headers)
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// SendMessage invokes message/send and returns the created task snapshot.
func (c *Client) SendMessage(ctx context.Context, req *server.SendMessageRequest) (*types.Task, error) {
	if req == nil {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "request is required", nil)
	}
	task := &types.Task{}
	if err := c.call(ctx, jsonrpc.MethodMessageSend, req, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask invokes tasks/get.
func (c *Client) GetTask(ctx context.Context, taskID string) (*types.Task, error) {
	if taskID == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "task id is required", nil)
	}
	task := &types.Task{}
	if err := c.call(ctx, jsonrpc.MethodTasksGet, &server.GetTaskRequest{ID: taskID}, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask invokes tasks/update.
func (c *Client) UpdateTask(ctx context.Context, req *server.UpdateTaskRequest) (*types.Task, error) {
	if req == nil {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "request is required", nil)
	}
	task := &types.Task{}
	if err := c.call(ctx, jsonrpc.MethodTasksUpdate, req, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CancelTask invokes tasks/cancel.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*types.Task, error) {
	if taskID == "" {
		return nil, qerrors.New(qerrors.CodeInvalidParams, "task id is required", nil)
	}
	task := &types.Task{}
	if err := c.call(ctx, jsonrpc.MethodTasksCancel, &server.CancelTaskRequest{ID: taskID}, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Capabilities invokes agent/capabilities.
func (c *Client) Capabilities(ctx context.Context) (*types.AgentCard, error) {
	card := &types.AgentCard{}
	if err := c.call(ctx, jsonrpc.MethodAgentCapabilities, struct{}{}, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Ping invokes agent/ping.
func (c *Client) Ping(ctx context.Context) (*server.PingResponse, error) {
	resp := &server.PingResponse{}
	if err := c.call(ctx, jsonrpc.MethodAgentPing, struct{}{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	req, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	c.applyHeaders(ctx, request)
	resp, err := c.httpClient.Do(request)
	if err != nil {
		return qerrors.New(qerrors.CodeAgentUnavailable, "agent unreachable", err).
			WithContext("endpoint", c.endpoint)
	}
	defer resp.Body.Close()
	var decoded jsonrpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return qerrors.New(qerrors.CodeInternal, "invalid rpc response", err)
	}
	if decoded.Error != nil {
		return qerrors.New(qerrors.FromRPCCode(decoded.Error.Code), decoded.Error.Message, nil).
			WithContext("endpoint", c.endpoint)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(decoded.Result, result)
}

func (c *Client) applyHeaders(ctx context.Context, request *http.Request) {
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
