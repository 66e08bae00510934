package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

const (
	defaultHeartbeat = 15 * time.Second
	eventBuffer      = 16
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
	heartbeat   time.Duration
	done        <-chan struct{}
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger, heartbeat: defaultHeartbeat}
}

// getCart
//
//	@Summary	Корзина текущей сессии
//	@Tags		cart
//	@Produce	json
//	@Param		X-Session-ID	header		string	false	"ID сессии"
//	@Success	200				{object}	CartResponse
//	@Router		/cart [get]
func (c *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := c.cartUsecase.View(r.Context(), SessionID(r.Context()))
	if err != nil {
		c.logger.Errorf(err, "view cart")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartViewResponse(view))
}

// addItem
//
//	@Summary		Добавить товар в корзину
//	@Description	Берёт товар из каталога и кладёт его снимок в корзину. Повторное добавление увеличивает количество
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string			false	"ID сессии"
//	@Param			body			body		addItemRequest	true	"Товар и количество"
//	@Success		200				{object}	CartResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		503				{object}	ErrorResponse	"Каталог недоступен"
//	@Router			/cart/items [post]
func (c *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		c.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	view, err := c.cartUsecase.AddItem(r.Context(), usecase.NewAddToCartReq(SessionID(r.Context()), req.ProductID, req.Quantity))
	if err != nil {
		c.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartViewResponse(view))
}

// updateItem
//
//	@Summary		Изменить количество товара
//	@Description	Количество 0 удаляет строку
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string				false	"ID сессии"
//	@Param			id				path		int					true	"ID товара"
//	@Param			body			body		updateItemRequest	true	"Новое количество"
//	@Success		200				{object}	CartResponse
//	@Failure		400				{object}	ErrorResponse
//	@Router			/cart/items/{id} [put]
func (c *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		c.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	var req updateItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		c.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	view, err := c.cartUsecase.UpdateItem(r.Context(), SessionID(r.Context()), id, *req.Quantity)
	if err != nil {
		c.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartViewResponse(view))
}

// removeItem
//
//	@Summary	Удалить товар из корзины
//	@Tags		cart
//	@Produce	json
//	@Param		X-Session-ID	header		string	false	"ID сессии"
//	@Param		id				path		int		true	"ID товара"
//	@Success	200				{object}	CartResponse
//	@Failure	400				{object}	ErrorResponse
//	@Router		/cart/items/{id} [delete]
func (c *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		c.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	view, err := c.cartUsecase.RemoveItem(r.Context(), SessionID(r.Context()), id)
	if err != nil {
		c.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartViewResponse(view))
}

// clearCart
//
//	@Summary	Очистить корзину
//	@Tags		cart
//	@Produce	json
//	@Param		X-Session-ID	header		string	false	"ID сессии"
//	@Success	200				{object}	CartResponse
//	@Router		/cart [delete]
func (c *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	view, err := c.cartUsecase.Clear(r.Context(), SessionID(r.Context()))
	if err != nil {
		c.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartViewResponse(view))
}

// endSession
//
//	@Summary	Завершить сессию
//	@Description	Закрывает сессию и удаляет сохранённую корзину
//	@Tags		session
//	@Param		X-Session-ID	header	string	false	"ID сессии"
//	@Success	204
//	@Router		/session [delete]
func (c *CartHandler) endSession(w http.ResponseWriter, r *http.Request) {
	c.cartUsecase.EndSession(r.Context(), SessionID(r.Context()))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// streamEvents
//
//	@Summary		Поток изменений корзины
//	@Description	Server-Sent Events: текущая корзина сразу после подключения, затем каждое изменение
//	@Tags			cart
//	@Produce		text/event-stream
//	@Param			X-Session-ID	header	string	false	"ID сессии"
//	@Success		200				{object}	CartResponse	"event: cart"
//	@Router			/cart/events [get]
func (c *CartHandler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.logger.Errorf(e.ErrStreamingUnsupported, "%s %s", r.Method, r.URL.Path)
		WriteError(w, e.ErrStreamingUnsupported)
		return
	}

	ctx := r.Context()
	sessionID := SessionID(ctx)

	// Наблюдатель вызывается под блокировкой стора, поэтому не ждёт клиента:
	// при переполнении буфера выбрасывается самый старый снимок.
	updates := make(chan usecase.CartSnapshot, eventBuffer)
	unsubscribe, err := c.cartUsecase.Subscribe(ctx, sessionID, usecase.ObserverFunc(func(s usecase.CartSnapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}))
	if err != nil {
		c.logFailure(r, err)
		WriteError(w, err)
		return
	}
	defer unsubscribe()

	view, err := c.cartUsecase.View(ctx, sessionID)
	if err != nil {
		c.logFailure(r, err)
		WriteError(w, err)
		return
	}

	// у потока нет конца, общий WriteTimeout сервера его бы оборвал
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, view.Snapshot.Version, toCartViewResponse(view)); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	c.logger.Debugf("sse stream opened for session %s", sessionID)
	for {
		select {
		case <-ctx.Done():
			c.logger.Debugf("sse stream closed for session %s", sessionID)
			return
		case <-c.done:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snapshot := <-updates:
			payload := toCartResponse(snapshot, c.cartUsecase.Summarize(snapshot))
			if err := writeEvent(w, snapshot.Version, payload); err != nil {
				c.logger.Warnf("sse write for session %s: %v", sessionID, err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, version uint64, payload CartResponse) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", version, data)
	return err
}

func (c *CartHandler) logFailure(r *http.Request, err error) {
	code, _, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		c.logger.Errorf(err, "%s %s", r.Method, r.URL.Path)
		return
	}
	c.logger.Warnf("%d %s %s: %s", code, r.Method, r.URL.Path, err.Error())
}
