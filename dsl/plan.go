package dsl

import (
	"fmt"
	"strings"

	"github.com/ByLCY/quire/layout"
)

// SourceKind 是来源类型。
type SourceKind string

const (
	SourceTable    SourceKind = "table"
	SourceDocument SourceKind = "document"
	SourceImage    SourceKind = "image"
)

// SourceSpec 是一个待加载的来源。Position 未写时取声明顺序。
type SourceSpec struct {
	Kind     SourceKind
	Path     string
	Position int
}

// StepKind 是后处理步骤类型。
type StepKind string

const (
	StepCompress StepKind = "compress"
	StepExtract  StepKind = "extract"
)

// Step 按书写顺序执行。DPI 为 0 表示使用默认值。
type Step struct {
	Kind     StepKind
	DPI      int
	From, To int
}

// Setting 是 layout 段中的一项，保留书写顺序。
type Setting struct {
	Key   string
	Value string
}

// Plan 是任务文件的语义结果。
type Plan struct {
	Name    string
	Version string
	Layout  []Setting
	Meta    layout.DocumentMeta
	Sources []SourceSpec
	Steps   []Step
	Output  string
}

// Lower 把语法树转换为 Plan，并检查来源、元数据键与输出的基本约束。
// 位置是否构成排列留给合并时检查。
func Lower(job *Job) (*Plan, error) {
	if job == nil {
		return nil, fmt.Errorf("任务为空")
	}
	plan := &Plan{Name: job.Name, Version: job.Version}
	for _, sec := range job.Sections {
		switch sec.Kind() {
		case "layout":
			for _, a := range sec.Layout.Block.Assignments {
				plan.Layout = append(plan.Layout, Setting{Key: a.Key, Value: a.Text()})
			}
		case "meta":
			if err := lowerMeta(&plan.Meta, sec.Meta.Block); err != nil {
				return nil, err
			}
		case "sources":
			for _, decl := range sec.Sources.Sources {
				spec := SourceSpec{Kind: SourceKind(decl.Kind), Path: string(decl.Path), Position: len(plan.Sources) + 1}
				if decl.Position != nil {
					spec.Position = *decl.Position
				}
				if spec.Path == "" {
					return nil, fmt.Errorf("%s: 来源路径为空", decl.Pos)
				}
				plan.Sources = append(plan.Sources, spec)
			}
		case "compress":
			step := Step{Kind: StepCompress}
			if sec.Compress.DPI != nil {
				step.DPI = *sec.Compress.DPI
			}
			plan.Steps = append(plan.Steps, step)
		case "extract":
			plan.Steps = append(plan.Steps, Step{Kind: StepExtract, From: sec.Extract.From, To: sec.Extract.To})
		case "output":
			if plan.Output != "" {
				return nil, fmt.Errorf("output 只能声明一次")
			}
			plan.Output = string(sec.Output.Path)
		}
	}
	if len(plan.Sources) == 0 {
		return nil, fmt.Errorf("任务 %s 没有声明任何来源", plan.Name)
	}
	if plan.Output == "" {
		return nil, fmt.Errorf("任务 %s 缺少 output", plan.Name)
	}
	return plan, nil
}

func lowerMeta(meta *layout.DocumentMeta, block *Block) error {
	for _, a := range block.Assignments {
		val := a.Text()
		switch strings.ToLower(a.Key) {
		case "title":
			meta.Title = val
		case "author":
			meta.Author = val
		case "subject":
			meta.Subject = val
		case "creator":
			meta.Creator = val
		case "keywords":
			for _, v := range a.Values {
				meta.Keywords = append(meta.Keywords, v.Text())
			}
		default:
			return fmt.Errorf("%s: 未知的元数据字段 %q", a.Pos, a.Key)
		}
	}
	return nil
}
