package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"whatsapp-bot/internal/phone"

	"go.mau.fi/whatsmeow"
)

// PairTimeout batas waktu user memasukkan kode pairing
const PairTimeout = 2 * time.Minute

// NormalizePairNumber membersihkan +, - dan spasi lalu memvalidasi 10-15 digit
func NormalizePairNumber(raw string) (string, error) {
	number := strings.NewReplacer("+", "", "-", "", " ", "").Replace(strings.TrimSpace(raw))
	if number == "" {
		return "", fmt.Errorf("nomor kosong")
	}
	result := phone.Parse(number)
	if !result.OK() || len(result.Numbers) != 1 {
		return "", fmt.Errorf("nomor tidak valid: %s", result.Summary(1))
	}
	return result.Numbers[0], nil
}

// EnsureConnection memastikan client terhubung, reconnect jika perlu
func EnsureConnection(ctx context.Context, client *whatsmeow.Client) error {
	if client == nil {
		return fmt.Errorf("WhatsApp client belum diinisialisasi")
	}
	if client.IsConnected() {
		return nil
	}
	if client.IsLoggedIn() {
		client.Disconnect()
	}
	if err := client.Connect(); err != nil {
		return fmt.Errorf("gagal reconnect: %w", err)
	}
	return WaitConnected(ctx, client, 10*time.Second)
}

// WaitConnected polling IsConnected sampai timeout
func WaitConnected(ctx context.Context, client *whatsmeow.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for !client.IsConnected() {
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout: client tidak terhubung setelah %v", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil
}

// RequestPairingCode meminta kode pairing untuk nomor (sudah dinormalisasi)
func RequestPairingCode(ctx context.Context, client *whatsmeow.Client, number string) (string, error) {
	if err := EnsureConnection(ctx, client); err != nil {
		return "", err
	}
	// whatsmeow butuh jeda setelah Connect sebelum pairing
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(2 * time.Second):
	}
	if !client.IsConnected() {
		return "", fmt.Errorf("koneksi terputus sebelum generate pairing code")
	}

	pairCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	code, err := client.PairPhone(pairCtx, number, true, whatsmeow.PairClientChrome, "Chrome (Windows)")
	if err != nil {
		return "", fmt.Errorf("gagal generate pairing code: %w", err)
	}
	if code == "" {
		return "", fmt.Errorf("pairing code kosong")
	}
	return code, nil
}

// WaitPaired menunggu sampai Store.ID terisi; tick dipanggil tiap interval
func WaitPaired(ctx context.Context, client *whatsmeow.Client, interval time.Duration, tick func(elapsed time.Duration)) bool {
	ctx, cancel := context.WithTimeout(ctx, PairTimeout)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return client.Store.ID != nil
		case <-ticker.C:
			if client.Store.ID != nil {
				return true
			}
			if tick != nil {
				tick(time.Since(started))
			}
		}
	}
}
