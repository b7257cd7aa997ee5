package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultGasBudget uint64 = 10_000_000
	DefaultTimeout          = 60 * time.Second

	statusSuccess = "success"
)

// ErrExecutionFailed means the transaction executed but its Move code aborted.
var ErrExecutionFailed = errors.New("transaction execution failed")

// Call is a single Move function invocation.
type Call struct {
	Package   string
	Module    string
	Function  string
	Args      []any
	GasBudget uint64
}

// Target renders the call as package::module::function.
func (c Call) Target() string {
	return c.Package + "::" + c.Module + "::" + c.Function
}

// Submitter executes Move calls on behalf of one address.
type Submitter interface {
	Submit(ctx context.Context, call Call) (*Effects, error)
	Address() string
}

// Client talks to a fullnode and signs with a single keypair.
type Client struct {
	url        string
	key        *Keypair
	httpClient *http.Client
}

func NewClient(url string, key *Keypair, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Address() string { return c.key.Address() }

// Submit builds, signs and executes call, returning the created objects.
// Calls are not retried: a failed execution may still have consumed gas.
func (c *Client) Submit(ctx context.Context, call Call) (*Effects, error) {
	txBytes, err := c.MoveCall(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", call.Target(), err)
	}

	raw, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return nil, fmt.Errorf("build %s: decode tx bytes: %w", call.Target(), err)
	}
	sig := c.key.SignTransaction(raw)

	resp, err := c.Execute(ctx, txBytes, sig)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", call.Target(), err)
	}
	if resp.Effects == nil {
		return nil, fmt.Errorf("execute %s: response carries no effects", call.Target())
	}
	if resp.Effects.Status.Status != statusSuccess {
		return nil, fmt.Errorf("%w: %s: %s", ErrExecutionFailed, call.Target(), resp.Effects.Status.Error)
	}

	effects := &Effects{Digest: resp.Digest}
	for _, ref := range resp.Effects.Created {
		effects.Created = append(effects.Created, CreatedObject{
			Owner:    ref.Owner,
			ObjectID: ref.Reference.ObjectID,
		})
	}
	return effects, nil
}

// MoveCall asks the node to build transaction bytes for call, with the node
// selecting the gas coin.
func (c *Client) MoveCall(ctx context.Context, call Call) (string, error) {
	budget := call.GasBudget
	if budget == 0 {
		budget = DefaultGasBudget
	}
	args := call.Args
	if args == nil {
		args = []any{}
	}

	resp, err := c.call(ctx, "unsafe_moveCall",
		c.key.Address(),
		call.Package,
		call.Module,
		call.Function,
		[]string{},
		args,
		nil,
		strconv.FormatUint(budget, 10),
	)
	if err != nil {
		return "", err
	}

	var tx TransactionBlockBytes
	if err := json.Unmarshal(resp.Result, &tx); err != nil {
		return "", fmt.Errorf("invalid moveCall result: %w", err)
	}
	if tx.TxBytes == "" {
		return "", errors.New("node returned empty txBytes")
	}
	return tx.TxBytes, nil
}

// Execute submits signed transaction bytes and waits for local execution.
func (c *Client) Execute(ctx context.Context, txBytes, signature string) (*TransactionBlockResponse, error) {
	options := map[string]bool{"showEffects": true}
	resp, err := c.call(ctx, "sui_executeTransactionBlock",
		txBytes,
		[]string{signature},
		options,
		"WaitForLocalExecution",
	)
	if err != nil {
		return nil, err
	}

	var out TransactionBlockResponse
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		return nil, fmt.Errorf("invalid execute result: %w", err)
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method string, params ...interface{}) (*Response, error) {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, body)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", httpResp.StatusCode)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}
