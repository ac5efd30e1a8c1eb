// Package services implements the monthly raffle lifecycle: the
// get-or-create of the current raffle, number reservation with a
// payment window, the admin bulk ticket review and the draw from the
// federal lottery result.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/caixinha-api/internal/auth"
	"github.com/magabrotheeeer/caixinha-api/internal/lib/sl"
	"github.com/magabrotheeeer/caixinha-api/internal/models"
	"github.com/magabrotheeeer/caixinha-api/internal/storage"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotMember          = errors.New("only members can play the raffle")
	ErrNotAdmin           = errors.New("admin role required")
	ErrInvalidResult      = errors.New("lottery result does not yield a number between 1 and 100")
	ErrInvalidMethod      = errors.New("unsupported payment method")
	ErrReservationExpired = errors.New("the reservation window has passed")
)

// RaffleRepository is the persistence surface of the raffle lifecycle.
type RaffleRepository interface {
	GetOrCreateRaffle(ctx context.Context, mes, ano int, premio decimal.Decimal) (*models.MonthlyRaffle, error)
	GetRaffle(ctx context.Context, raffleID string) (*models.MonthlyRaffle, error)
	GetTicket(ctx context.Context, ticketID string) (*models.RaffleTicket, error)
	ReserveTickets(ctx context.Context, raffleID, userUID string, numbers []int, valor decimal.Decimal, expiresAt time.Time) ([]*models.RaffleTicket, error)
	ListTicketsByRaffle(ctx context.Context, raffleID string) ([]*models.RaffleTicket, error)
	ListTicketsByUser(ctx context.Context, raffleID, userUID string) ([]*models.RaffleTicket, error)
	SubmitTicketPayment(ctx context.Context, ticketID, userUID, formaPagamento string, comprovanteURL *string) error
	ConfirmTickets(ctx context.Context, ticketIDs []string) (int, error)
	RejectTickets(ctx context.Context, ticketIDs []string) (int, error)
	DrawRaffle(ctx context.Context, raffleID, resultado string, numero int) error
	GetWinningTicket(ctx context.Context, raffleID string, numero int) (*models.RaffleTicket, error)
	GetConfig(ctx context.Context) (*models.SystemConfig, error)
	LogAdminAction(ctx context.Context, action models.AdminAction) error
}

// ReceiptStore persists uploaded payment receipts.
type ReceiptStore interface {
	Save(userUID, recordID, filename string, r io.Reader) (string, error)
}

// RaffleService implements the raffle lifecycle on top of the
// repository.
type RaffleService struct {
	repo     RaffleRepository
	receipts ReceiptStore
	log      *slog.Logger
	now      func() time.Time
}

// NewRaffleService creates a RaffleService.
func NewRaffleService(repo RaffleRepository, receipts ReceiptStore, log *slog.Logger) *RaffleService {
	return &RaffleService{
		repo:     repo,
		receipts: receipts,
		log:      log,
		now:      time.Now,
	}
}

// RaffleView is the current raffle with the taken numbers and the
// caller's own tickets.
type RaffleView struct {
	Raffle       *models.MonthlyRaffle  `json:"raffle"`
	TakenNumbers []int                  `json:"taken_numbers"`
	MyTickets    []*models.RaffleTicket `json:"my_tickets"`
}

// Current returns this month's raffle, creating it on first access
// with the configured prize.
func (s *RaffleService) Current(ctx context.Context, actor auth.Context) (*RaffleView, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	raffle, err := s.repo.GetOrCreateRaffle(ctx, int(now.Month()), now.Year(), cfg.ValorPremioSorteio)
	if err != nil {
		return nil, err
	}

	tickets, err := s.repo.ListTicketsByRaffle(ctx, raffle.ID)
	if err != nil {
		return nil, err
	}
	taken := make([]int, 0, len(tickets))
	for _, t := range tickets {
		taken = append(taken, t.NumeroEscolhido)
	}

	mine, err := s.repo.ListTicketsByUser(ctx, raffle.ID, actor.UserUID)
	if err != nil {
		return nil, err
	}
	return &RaffleView{Raffle: raffle, TakenNumbers: taken, MyTickets: mine}, nil
}

// Reserve books the chosen numbers in the current raffle, all or
// nothing. Each reservation waits three days for payment.
func (s *RaffleService) Reserve(ctx context.Context, actor auth.Context, req models.DummyReserveNumbers) ([]*models.RaffleTicket, error) {
	if !actor.IsMember() {
		return nil, ErrNotMember
	}

	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	raffle, err := s.repo.GetOrCreateRaffle(ctx, int(now.Month()), now.Year(), cfg.ValorPremioSorteio)
	if err != nil {
		return nil, err
	}

	tickets, err := s.repo.ReserveTickets(ctx, raffle.ID, actor.UserUID, req.Numbers,
		cfg.ValorBilheteSorteio, now.Add(models.ReservationTTL))
	if err != nil {
		return nil, err
	}
	s.log.Info("numbers reserved",
		slog.String("raffle_id", raffle.ID),
		slog.Int("count", len(tickets)))
	return tickets, nil
}

// SubmitPayment records the member's payment claim on a reserved
// ticket. PIX requires a receipt. Claims past the reservation deadline
// are refused; the release sweep will free the number.
func (s *RaffleService) SubmitPayment(ctx context.Context, actor auth.Context, ticketID,
	formaPagamento, filename string, receipt io.Reader) error {
	if !actor.IsMember() {
		return ErrNotMember
	}
	if formaPagamento != models.MethodPix && formaPagamento != models.MethodDinheiro {
		return ErrInvalidMethod
	}
	if formaPagamento == models.MethodPix && receipt == nil {
		return ErrInvalidMethod
	}

	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.UserUID != actor.UserUID {
		return storage.ErrNotFound
	}
	if ticket.Expired(s.now()) {
		return ErrReservationExpired
	}

	var comprovanteURL *string
	if receipt != nil {
		url, err := s.receipts.Save(actor.UserUID, ticketID, filename, receipt)
		if err != nil {
			return err
		}
		comprovanteURL = &url
	}

	if err := s.repo.SubmitTicketPayment(ctx, ticketID, actor.UserUID, formaPagamento, comprovanteURL); err != nil {
		return err
	}
	s.log.Info("ticket payment submitted", slog.String("ticket_id", ticketID))
	return nil
}

// ConfirmTickets confirms a batch of submitted tickets.
func (s *RaffleService) ConfirmTickets(ctx context.Context, actor auth.Context, req models.DummyTicketBatch) (int, error) {
	if !actor.IsAdmin() {
		return 0, ErrNotAdmin
	}
	confirmed, err := s.repo.ConfirmTickets(ctx, req.TicketIDs)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, actor, "confirm_tickets", "raffle_tickets", req.TicketIDs)
	s.log.Info("tickets confirmed", slog.Int("count", confirmed))
	return confirmed, nil
}

// RejectTickets sends a batch of submitted tickets back to pendente.
func (s *RaffleService) RejectTickets(ctx context.Context, actor auth.Context, req models.DummyTicketBatch) (int, error) {
	if !actor.IsAdmin() {
		return 0, ErrNotAdmin
	}
	rejected, err := s.repo.RejectTickets(ctx, req.TicketIDs)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, actor, "reject_tickets", "raffle_tickets", req.TicketIDs)
	s.log.Info("tickets rejected", slog.Int("count", rejected))
	return rejected, nil
}

// DrawResult is the outcome of a draw: the winning number and, when
// somebody bought it, the winning ticket.
type DrawResult struct {
	Raffle *models.MonthlyRaffle `json:"raffle"`
	Winner *models.RaffleTicket  `json:"winner,omitempty"`
}

// Draw closes the raffle using the federal lottery result. The winning
// number is the last two digits parsed as an integer; 00 or anything
// outside 1..100 rejects the draw and the raffle stays open.
func (s *RaffleService) Draw(ctx context.Context, actor auth.Context, raffleID string, req models.DummyDrawRaffle) (*DrawResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	numero, err := winningNumber(req.ResultadoLoteria)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DrawRaffle(ctx, raffleID, req.ResultadoLoteria, numero); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "draw_raffle", "monthly_raffles", []string{raffleID})

	raffle, err := s.repo.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	result := &DrawResult{Raffle: raffle}
	winner, err := s.repo.GetWinningTicket(ctx, raffleID, numero)
	switch {
	case err == nil:
		result.Winner = winner
	case errors.Is(err, storage.ErrNotFound):
		// Nobody bought the winning number.
	default:
		return nil, err
	}

	s.log.Info("raffle drawn",
		slog.String("raffle_id", raffleID),
		slog.Int("numero", numero),
		slog.Bool("has_winner", result.Winner != nil))
	return result, nil
}

// winningNumber parses the last two characters of the lottery result
// as the winning number.
func winningNumber(resultado string) (int, error) {
	if len(resultado) < 2 {
		return 0, ErrInvalidResult
	}
	n, err := strconv.Atoi(resultado[len(resultado)-2:])
	if err != nil {
		return 0, ErrInvalidResult
	}
	if n < models.RaffleNumberMin || n > models.RaffleNumberMax {
		return 0, ErrInvalidResult
	}
	return n, nil
}

func (s *RaffleService) audit(ctx context.Context, actor auth.Context, acao, tabela string, recordIDs []string) {
	snapshot, err := json.Marshal(recordIDs)
	if err != nil {
		s.log.Warn("failed to marshal audit snapshot", sl.Err(err))
		return
	}
	registro := ""
	if len(recordIDs) > 0 {
		registro = recordIDs[0]
	}
	action := models.AdminAction{
		AdminUID:      actor.UserUID,
		Acao:          acao,
		TabelaAfetada: tabela,
		RegistroID:    registro,
		DadosNovos:    snapshot,
	}
	if err := s.repo.LogAdminAction(ctx, action); err != nil {
		s.log.Warn("failed to write audit log", sl.Err(err))
	}
}
