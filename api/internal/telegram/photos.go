package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sheet-grader/api/internal/grader"
)

const maxDownloadBytes = 20 << 20

func isImageDocument(doc *tgbotapi.Document) bool {
	return doc != nil && strings.HasPrefix(doc.MimeType, "image/")
}

func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID

	req, err := requestFromCaption(msg.Caption, r.settings.Get(cid))
	if err != nil {
		r.send(cid, "❌ "+err.Error())
		return
	}

	fileID := ""
	if len(msg.Photo) > 0 {
		// largest size comes last
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	} else {
		fileID = msg.Document.FileID
	}
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	img, err := download(ctx, url)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	r.send(cid, fmt.Sprintf("Photo received, reading %d questions…", req.QuestionCount))

	out, err := r.Grader.Correct(ctx, grader.Input{
		Image:   img,
		Request: req,
		LLMName: r.EngManager.Get(cid),
	})
	if err != nil {
		r.Log.Warn("telegram.correct_failed", "chat_id", cid, "error", err)
		r.SendError(cid, err)
		return
	}
	r.SendResult(cid, out)
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("download: status %d: %s", resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxDownloadBytes {
		return nil, fmt.Errorf("download: file larger than %d bytes", maxDownloadBytes)
	}
	return b, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
