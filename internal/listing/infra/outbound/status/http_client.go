package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// HTTPStatusClient consulta el colaborador de chequeo de estado. El
// colaborador responde en texto plano con uno de los cuatro códigos
// exactos: OK | STOLEN | WRITTEN_OFF | INVALID.
type HTTPStatusClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// Verificación estática.
var _ domain.StatusValidator = (*HTTPStatusClient)(nil)

func NewHTTPStatusClient(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPStatusClient {
	return &HTTPStatusClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPStatusClient) Validate(ctx context.Context, registration string) (domain.ValidationResult, error) {
	endpoint := fmt.Sprintf("%s/check/%s", c.baseURL, url.PathEscape(registration))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("%w: %v", domain.ErrValidationUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("%w: %v", domain.ErrValidationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ValidationResult{}, fmt.Errorf("%w: status collaborator returned %d", domain.ErrValidationUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("%w: %v", domain.ErrValidationUnavailable, err)
	}

	// Coincidencia exacta y sensible a mayúsculas: cualquier otra cosa
	// es un error de protocolo, nunca un OK implícito.
	switch status := domain.VehicleStatus(string(body)); status {
	case domain.StatusOK, domain.StatusStolen, domain.StatusWrittenOff, domain.StatusInvalid:
		return domain.ValidationResult{Registration: registration, Status: status}, nil
	default:
		return domain.ValidationResult{}, fmt.Errorf("%w: unexpected status body %q", domain.ErrValidationUnavailable, string(body))
	}
}

// HTTPListingRemover invoca el borrado idempotente del anuncio en el
// API de anuncios cuando el vehículo resulta robado.
type HTTPListingRemover struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

var _ domain.ListingRemover = (*HTTPListingRemover)(nil)

func NewHTTPListingRemover(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPListingRemover {
	return &HTTPListingRemover{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (r *HTTPListingRemover) Remove(ctx context.Context, registration string) error {
	endpoint := fmt.Sprintf("%s/vehicles/%s", r.baseURL, url.PathEscape(registration))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 404 cuenta como éxito: el anuncio ya no existe (idempotencia).
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("listing api returned %d deleting %s", resp.StatusCode, registration)
	}

	return nil
}
