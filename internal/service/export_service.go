package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"craz-web-meta/internal/dto"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportTeamInvites 导出团队邀请码为 Excel
	ExportTeamInvites(ctx context.Context, teamID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	team   TeamService
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(team TeamService, logger *zap.Logger) ExportService {
	return &exportService{team: team, now: time.Now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTeamInvites — 导出团队邀请码
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "邀请码"
//   - 第 1 行标题，第 2 行表头：邀请码 | 创建时间 | 过期时间 | 状态 | 使用者 | 使用时间
//   - 时间按 UTC 格式化
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTeamInvites(ctx context.Context, teamID string) (*bytes.Buffer, string, error) {
	invites, err := s.team.ListInvites(ctx, teamID)
	if err != nil {
		return nil, "", err
	}

	now := s.now()

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "邀请码"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.log(ctx).Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"邀请码", "创建时间", "过期时间", "状态", "使用者", "使用时间"}
	widths := []float64{14, 22, 22, 10, 24, 22}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("团队 %s 邀请码（导出于 %s）", teamID, formatUnix(now.Unix())))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	for i, inv := range invites {
		row := 3 + i
		usedBy, usedAt := "-", "-"
		if inv.UsedBy != nil {
			usedBy = *inv.UsedBy
		}
		if inv.UsedAt != nil {
			usedAt = formatUnix(*inv.UsedAt)
		}
		f.SetCellValue(sheetName, cell("A", row), inv.Code)
		f.SetCellValue(sheetName, cell("B", row), formatUnix(inv.CreatedAt))
		f.SetCellValue(sheetName, cell("C", row), time.UnixMilli(inv.ExpireAt).UTC().Format(time.DateTime))
		f.SetCellValue(sheetName, cell("D", row), inviteStatus(inv, now))
		f.SetCellValue(sheetName, cell("E", row), usedBy)
		f.SetCellValue(sheetName, cell("F", row), usedAt)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.log(ctx).Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("邀请码_%s_%s.xlsx", teamID, now.UTC().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func inviteStatus(inv dto.InviteDetail, now time.Time) string {
	switch {
	case now.UnixMilli() > inv.ExpireAt:
		return "已过期"
	case inv.Used:
		return "已使用"
	default:
		return "有效"
	}
}

func formatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.DateTime)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
