package main

import (
	"bytes"
	"fmt"
	"os"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/internal/addresses/mapping"
	"avfall_backend/internal/addresses/spreadsheet"

	"github.com/spf13/cobra"
)

const normalizeSampleSize = 3

type normalizeOutput struct {
	SheetName        string                 `json:"sheetName"`
	ReceivedRows     int                    `json:"receivedRows"`
	ParsedRows       int                    `json:"parsedRows"`
	RejectedRows     int                    `json:"rejectedRows"`
	SkippedBlankRows int                    `json:"skippedBlankRows"`
	Rejections       []mapping.Rejection    `json:"rejections,omitempty"`
	Sample           []domain.AddressRecord `json:"sample"`
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file.xlsx>",
		Short: "Map a workbook to address records without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			aliases, err := mapping.LoadAliases(cfg.GetHeaderAliasesFile())
			if err != nil {
				return fmt.Errorf("load header aliases: %w", err)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sheet, err := spreadsheet.Read(bytes.NewReader(data))
			if err != nil {
				return err
			}

			result := mapping.New(aliases).Map(sheet.Rows)
			return writeJSON(cmd.OutOrStdout(), normalizeOutput{
				SheetName:        sheet.Name,
				ReceivedRows:     len(sheet.Rows),
				ParsedRows:       len(result.Records),
				RejectedRows:     len(result.Rejected),
				SkippedBlankRows: result.SkippedBlank,
				Rejections:       result.Rejected,
				Sample:           result.Sample(normalizeSampleSize),
			})
		},
	}
}
