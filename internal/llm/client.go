package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyResponse = errors.New("empty llm response")

// 外部LLMプロキシへのクライアント。チャットと買い物リスト生成に使う。
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL string, apiKey string, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// GeneratedItemは生成された買い物リストの1行
type GeneratedItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

// promptから買い物リストを生成する。upstreamの生の応答は
// JSON配列を含むテキストで、制御文字が混ざることがあるので
// パース前に取り除く。
func (c *Client) GenerateList(ctx context.Context, prompt string) ([]GeneratedItem, string, error) {
	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: "You generate grocery shopping lists. Respond with a JSON array of {id, name, price, quantity, unit, category} objects and nothing else."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, "", err
	}

	cleaned := stripControlChars(content)

	items, err := parseItemArray(cleaned)
	if err != nil {
		//パースできなくても生テキストは返す（呼び出し側が表示する）
		return nil, cleaned, nil
	}
	return items, cleaned, nil
}

// 注文・定期注文の文脈つきチャット
func (c *Client) Chat(ctx context.Context, message string, orderData string, subscriptionData string) (string, error) {
	system := "You are a helpful assistant for a grocery marketplace."
	if orderData != "" {
		system += "\nCurrent orders: " + orderData
	}
	if subscriptionData != "" {
		system += "\nCurrent subscriptions: " + subscriptionData
	}

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	})
	if err != nil {
		return "", err
	}
	return stripControlChars(content), nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm upstream status %d", res.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

// 制御文字（改行・タブ以外）を取り除く
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// テキストの中からJSON配列部分を取り出してパースする
func parseItemArray(content string) ([]GeneratedItem, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no json array in response")
	}

	var items []GeneratedItem
	if err := json.Unmarshal([]byte(content[start:end+1]), &items); err != nil {
		return nil, err
	}
	return items, nil
}
