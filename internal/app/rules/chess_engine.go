package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/notnil/chess"
)

var uciPattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// ChessEngine implements Engine on top of github.com/notnil/chess.
//
// Draws follow the automatic-claim behaviour players expect from web clients:
// stalemate, insufficient material, threefold repetition and the fifty-move rule all
// end the game without a claim.
type ChessEngine struct{}

// NewChessEngine returns the notnil/chess backed engine.
func NewChessEngine() *ChessEngine {
	return &ChessEngine{}
}

type chessPosition struct {
	game   *chess.Game
	status Status
}

func (p *chessPosition) FEN() string {
	return p.game.Position().String()
}

func (p *chessPosition) Turn() Color {
	if p.game.Position().Turn() == chess.Black {
		return Black
	}
	return White
}

// NewPosition returns the standard starting position.
func (e *ChessEngine) NewPosition() Position {
	return &chessPosition{game: chess.NewGame()}
}

// PositionFromFEN builds a position without history from a FEN string.
func (e *ChessEngine) PositionFromFEN(fen string) (Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}

	p := &chessPosition{game: chess.NewGame(opt)}
	p.status = classify(p.game)
	return p, nil
}

// ApplyMove plays move on a copy of pos. Moves on a finished game are rejected.
func (e *ChessEngine) ApplyMove(pos Position, move Move) (Position, error) {
	current, ok := pos.(*chessPosition)
	if !ok {
		return nil, fmt.Errorf("position of type %T was not created by this engine", pos)
	}

	if current.status.Over() {
		return nil, fmt.Errorf("%w: game is over", ErrIllegalMove)
	}

	game := current.game.Clone()

	decoded, err := decodeMove(game.Position(), move)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIllegalMove, move, err)
	}

	if err := game.Move(decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIllegalMove, move, err)
	}

	return &chessPosition{game: game, status: classify(game)}, nil
}

// Status classifies pos. Positions from other engines are reported as ongoing.
func (e *ChessEngine) Status(pos Position) Status {
	if p, ok := pos.(*chessPosition); ok {
		return p.status
	}
	return Status{Kind: Ongoing}
}

// decodeMove resolves move against the legal moves of pos. Square moves and UCI text
// are matched by origin and target; a requested promotion only applies to a pawn
// reaching the last rank and defaults to a queen there.
func decodeMove(pos *chess.Position, move Move) (*chess.Move, error) {
	if uciPattern.MatchString(move.Text) {
		move = Move{From: move.Text[:2], To: move.Text[2:4], Promotion: move.Text[4:]}
	}

	if move.From != "" || move.To != "" {
		return moveBySquares(pos, move)
	}

	if move.Text == "" {
		return nil, errors.New("empty move")
	}
	return chess.AlgebraicNotation{}.Decode(pos, move.Text)
}

func moveBySquares(pos *chess.Position, move Move) (*chess.Move, error) {
	from, to := strings.ToLower(move.From), strings.ToLower(move.To)
	promo := promotionPiece(move.Promotion)

	for _, m := range pos.ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		if m.Promo() == chess.NoPieceType || m.Promo() == promo {
			return m, nil
		}
	}

	return nil, fmt.Errorf("no legal move from %q to %q", from, to)
}

func promotionPiece(letter string) chess.PieceType {
	switch strings.ToLower(letter) {
	case "r":
		return chess.Rook
	case "b":
		return chess.Bishop
	case "n":
		return chess.Knight
	default:
		return chess.Queen
	}
}

// classify settles claimable draws on game and maps its outcome to a Status.
func classify(game *chess.Game) Status {
	if game.Outcome() == chess.NoOutcome {
		for _, method := range game.EligibleDraws() {
			if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
				_ = game.Draw(method)
				break
			}
		}
	}

	switch game.Outcome() {
	case chess.WhiteWon, chess.BlackWon:
		if game.Method() != chess.Checkmate {
			return Status{Kind: Ongoing}
		}
		loser := White
		if game.Outcome() == chess.WhiteWon {
			loser = Black
		}
		return Status{Kind: Checkmate, Loser: loser}
	case chess.Draw:
		return Status{Kind: Draw, Reason: drawReason(game.Method())}
	default:
		return Status{Kind: Ongoing}
	}
}

func drawReason(m chess.Method) string {
	switch m {
	case chess.Stalemate:
		return "stalemate"
	case chess.InsufficientMaterial:
		return "insufficient material"
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return "repetition"
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return "fifty-move rule"
	default:
		return "draw"
	}
}
