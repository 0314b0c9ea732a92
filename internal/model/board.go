package model

import "time"

const (
	// BoardSize は盤面の一辺のマス数。
	BoardSize = 5
	// CellCount は1枚の盤面のマス数。
	CellCount = BoardSize * BoardSize
)

// Cell は盤面の1マスを表す。
// Indexは行優先の位置（row*5+col）で、LabelとIndexは作成後に変化しない。
type Cell struct {
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
	Index   int    `json:"index"`
}

// Board はユーザーのビンゴ盤面を表す。
// ユーザーごとにCurrent=trueの盤面は常に1枚だけ存在する。
// 古い盤面は削除されず、Current=falseとして履歴に残る。
type Board struct {
	ID        string                    `json:"id"`
	UserID    int64                     `json:"user_id"`
	CreatedAt time.Time                 `json:"created_at"`
	Current   bool                      `json:"current"`
	Solved    bool                      `json:"solved"`
	Cells     [BoardSize][BoardSize]Cell `json:"cells"`
}

// ValidIndex はindexが盤面のマス範囲（0..24）に収まるかを返す。
func ValidIndex(index int) bool {
	return index >= 0 && index < CellCount
}

// Toggle はindexに一致するマスのチェック状態を反転する。
// 一致するマスがない場合は何もせずfalseを返す。
func (b *Board) Toggle(index int) bool {
	for row := range b.Cells {
		for col := range b.Cells[row] {
			if b.Cells[row][col].Index == index {
				b.Cells[row][col].Checked = !b.Cells[row][col].Checked
				return true
			}
		}
	}
	return false
}

// Cell はindexに一致するマスを返す。
func (b *Board) Cell(index int) (Cell, bool) {
	for _, row := range b.Cells {
		for _, c := range row {
			if c.Index == index {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// HasLine は縦・横・対角線のいずれか1列がすべてチェック済みかを返す。
func (b *Board) HasLine() bool {
	diag, anti := true, true
	for i := 0; i < BoardSize; i++ {
		row, col := true, true
		for j := 0; j < BoardSize; j++ {
			row = row && b.Cells[i][j].Checked
			col = col && b.Cells[j][i].Checked
		}
		if row || col {
			return true
		}
		diag = diag && b.Cells[i][i].Checked
		anti = anti && b.Cells[i][BoardSize-1-i].Checked
	}
	return diag || anti
}

// BoardSummary は盤面履歴一覧の1行を表す。
type BoardSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
	Solved    bool      `json:"solved"`
	Checked   int       `json:"checked"`
}

// Summary は盤面の要約を返す。
func (b *Board) Summary() BoardSummary {
	checked := 0
	for _, row := range b.Cells {
		for _, c := range row {
			if c.Checked {
				checked++
			}
		}
	}
	return BoardSummary{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		Current:   b.Current,
		Solved:    b.Solved,
		Checked:   checked,
	}
}
