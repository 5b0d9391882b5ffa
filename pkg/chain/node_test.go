package chain

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fakeNode is a minimal JSON-RPC endpoint standing in for a Berachain
// node. It answers the handful of methods the signer and reader use,
// including batched calls.
type fakeNode struct {
	t *testing.T

	mu           sync.Mutex
	submitted    *ethtypes.Transaction
	httpRequests int
	chainIDCalls int
	receiptDelay int // polls answered with null before the receipt appears
	receiptPolls int
	failReceipt  bool   // mined receipt carries status 0x0
	revertData   string // eth_call error payload, signer revert replay
	estimateErr  string // eth_estimateGas error message

	// reader hooks
	onCall    func(to, data string) (string, *rpcError)
	onBalance func(addr string) string
}

type rpcRequest struct {
	ID     jsoniter.RawMessage   `json:"id"`
	Method string                `json:"method"`
	Params []jsoniter.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Result has no omitempty: ethclient needs an explicit null to tell
// "not found" apart from a response with no result at all.
type rpcResponse struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      jsoniter.RawMessage `json:"id"`
	Result  any                 `json:"result"`
	Error   *rpcError           `json:"error,omitempty"`
}

func newFakeNode(t *testing.T) (*fakeNode, string) {
	t.Helper()
	node := &fakeNode{t: t}
	server := httptest.NewServer(http.HandlerFunc(node.handle))
	t.Cleanup(server.Close)
	return node, server.URL
}

func (n *fakeNode) handle(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	n.httpRequests++
	n.mu.Unlock()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		n.t.Errorf("read rpc body: %v", err)
		return
	}

	trimmed := strings.TrimSpace(string(body))
	w.Header().Set("Content-Type", "application/json")

	if strings.HasPrefix(trimmed, "[") {
		var reqs []rpcRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			n.t.Errorf("decode rpc batch: %v", err)
			return
		}
		responses := make([]rpcResponse, len(reqs))
		for i, req := range reqs {
			responses[i] = n.respond(req)
		}
		data, _ := json.Marshal(responses)
		w.Write(data)
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		n.t.Errorf("decode rpc request: %v", err)
		return
	}
	data, _ := json.Marshal(n.respond(req))
	w.Write(data)
}

func (n *fakeNode) respond(req rpcRequest) rpcResponse {
	result, rpcErr := n.call(req.Method, req.Params)
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	if rpcErr == nil {
		resp.Result = result
	}
	return resp
}

func (n *fakeNode) call(method string, params []jsoniter.RawMessage) (any, *rpcError) {
	switch method {
	case "eth_chainId":
		n.mu.Lock()
		n.chainIDCalls++
		n.mu.Unlock()
		return "0x138de", nil // 80094
	case "eth_getTransactionCount":
		return "0x7", nil
	case "eth_gasPrice":
		return "0x3b9aca00", nil // 1 gwei
	case "eth_estimateGas":
		if n.estimateErr != "" {
			return nil, &rpcError{Code: -32000, Message: n.estimateErr}
		}
		return "0x186a0", nil // 100000
	case "eth_sendRawTransaction":
		return n.acceptTransaction(params)
	case "eth_getTransactionReceipt":
		return n.receipt()
	case "eth_getTransactionByHash":
		return n.transactionByHash()
	case "eth_call":
		return n.contractCall(params)
	case "eth_getBalance":
		return n.balance(params)
	}
	n.t.Errorf("unexpected rpc method %s", method)
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func (n *fakeNode) acceptTransaction(params []jsoniter.RawMessage) (any, *rpcError) {
	var rawHex string
	if err := json.Unmarshal(params[0], &rawHex); err != nil {
		n.t.Errorf("decode raw tx param: %v", err)
		return nil, &rpcError{Code: -32000, Message: "bad params"}
	}
	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		n.t.Errorf("decode raw tx hex: %v", err)
		return nil, &rpcError{Code: -32000, Message: "bad raw tx"}
	}
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		n.t.Errorf("unmarshal raw tx: %v", err)
		return nil, &rpcError{Code: -32000, Message: "bad raw tx"}
	}

	n.mu.Lock()
	n.submitted = tx
	n.mu.Unlock()
	return tx.Hash().Hex(), nil
}

func (n *fakeNode) receipt() (any, *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.receiptPolls++
	if n.receiptPolls <= n.receiptDelay {
		return nil, nil // null: not mined yet
	}

	status := "0x1"
	if n.failReceipt {
		status = "0x0"
	}
	txHash := "0x" + strings.Repeat("ab", 32)
	if n.submitted != nil {
		txHash = n.submitted.Hash().Hex()
	}
	return map[string]any{
		"transactionHash":   txHash,
		"status":            status,
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"logsBloom":         "0x" + strings.Repeat("0", 512),
		"logs":              []any{},
		"blockNumber":       "0x64",
		"blockHash":         "0x" + strings.Repeat("11", 32),
		"transactionIndex":  "0x0",
		"type":              "0x0",
		"effectiveGasPrice": "0x3b9aca00",
	}, nil
}

func (n *fakeNode) transactionByHash() (any, *rpcError) {
	n.mu.Lock()
	tx := n.submitted
	n.mu.Unlock()
	if tx == nil {
		return nil, nil
	}

	data, err := tx.MarshalJSON()
	if err != nil {
		n.t.Errorf("marshal submitted tx: %v", err)
		return nil, &rpcError{Code: -32000, Message: "marshal failed"}
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		n.t.Errorf("reshape submitted tx: %v", err)
		return nil, &rpcError{Code: -32000, Message: "marshal failed"}
	}
	return obj, nil
}

func (n *fakeNode) contractCall(params []jsoniter.RawMessage) (any, *rpcError) {
	if n.onCall != nil {
		// ethclient sends calldata as "input", raw batch elements as "data".
		var call struct {
			To    string `json:"to"`
			Data  string `json:"data"`
			Input string `json:"input"`
		}
		if err := json.Unmarshal(params[0], &call); err != nil {
			n.t.Errorf("decode call object: %v", err)
			return nil, &rpcError{Code: -32000, Message: "bad call"}
		}
		data := call.Data
		if data == "" {
			data = call.Input
		}
		return n.onCall(call.To, data)
	}
	if n.revertData != "" {
		return nil, &rpcError{Code: 3, Message: "execution reverted", Data: n.revertData}
	}
	return "0x", nil
}

func (n *fakeNode) balance(params []jsoniter.RawMessage) (any, *rpcError) {
	if n.onBalance == nil {
		return "0x0", nil
	}
	var addr string
	if err := json.Unmarshal(params[0], &addr); err != nil {
		n.t.Errorf("decode balance address: %v", err)
		return nil, &rpcError{Code: -32000, Message: "bad params"}
	}
	return n.onBalance(addr), nil
}

func (n *fakeNode) polls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receiptPolls
}

func (n *fakeNode) chainIDRequests() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chainIDCalls
}

func (n *fakeNode) requests() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.httpRequests
}

func (n *fakeNode) submittedTx() *ethtypes.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.submitted
}
