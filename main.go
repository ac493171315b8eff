package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dataset"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
)

const usage = `用法: quire <命令> [参数]

命令:
  merge    按指定顺序合并 PDF、图片与表格
  table    把表格文件排版为 PDF 并依次合并
  images   把图片转换为 PDF 并合并
  compress 以指定 DPI 栅格化后重新压缩 PDF
  extract  截取页范围
  run      执行任务文件

每个命令都支持 -h 查看参数。`

// common 是所有子命令共享的参数。
type common struct {
	output  string
	cfgPath string
	debug   string
	verbose bool
	workers int
}

func (c *common) register(fs *flag.FlagSet, defaultOut string) {
	fs.StringVar(&c.output, "o", defaultOut, "PDF 输出路径")
	fs.StringVar(&c.cfgPath, "config", "", "排版配置 YAML 文件")
	fs.StringVar(&c.debug, "debug", "", "布局调试 JSON 输出路径")
	fs.BoolVar(&c.verbose, "v", false, "输出调试日志")
	fs.IntVar(&c.workers, "workers", 0, "并行排版的工作协程数，0 表示自动")
}

func (c *common) logger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if c.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (c *common) config() (config.LayoutConfig, error) {
	cfg := config.Default()
	if c.cfgPath != "" {
		var err error
		if cfg, err = config.Load(c.cfgPath); err != nil {
			return cfg, err
		}
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}
	return cfg, nil
}

// stringList 收集可重复的参数，例如 -var a=1 -var b=2。
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "merge":
		err = runMerge(args)
	case "table":
		err = runSources(cmd, args, dsl.SourceTable)
	case "images":
		err = runImages(args)
	case "compress":
		err = runCompress(args)
	case "extract":
		err = runExtract(args)
	case "run":
		err = runJob(args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		err = fmt.Errorf("未知命令 %q\n\n%s", cmd, usage)
	}
	if err != nil {
		logrus.Fatalf("%s 失败: %v", cmd, err)
	}
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	var c common
	c.register(fs, "output/merged.pdf")
	order := fs.String("order", "", "逗号分隔的输出顺序（文件名），需恰好包含每个输入一次；留空按参数顺序")
	_ = fs.Parse(args)

	specs, err := sourceSpecs(fs.Args(), "")
	if err != nil {
		return err
	}
	if *order != "" {
		if err := applyOrder(specs, strings.Split(*order, ",")); err != nil {
			return err
		}
	}
	return execute(&c, &dsl.Plan{Name: "merge", Sources: specs, Output: c.output})
}

func runSources(name string, args []string, kind dsl.SourceKind) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var c common
	c.register(fs, "output/"+name+".pdf")
	_ = fs.Parse(args)

	specs, err := sourceSpecs(fs.Args(), kind)
	if err != nil {
		return err
	}
	return execute(&c, &dsl.Plan{Name: name, Sources: specs, Output: c.output})
}

func runImages(args []string) error {
	fs := flag.NewFlagSet("images", flag.ExitOnError)
	var c common
	c.register(fs, "output/images.pdf")
	separate := fs.Bool("separate", false, "同时为每张图片单独输出一个 PDF")
	_ = fs.Parse(args)

	specs, err := sourceSpecs(fs.Args(), dsl.SourceImage)
	if err != nil {
		return err
	}
	if err := execute(&c, &dsl.Plan{Name: "images", Sources: specs, Output: c.output}); err != nil {
		return err
	}
	if !*separate {
		return nil
	}
	dir := filepath.Dir(c.output)
	for _, spec := range specs {
		spec.Position = 1
		out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(spec.Path), filepath.Ext(spec.Path))+".pdf")
		if err := execute(&c, &dsl.Plan{Name: "image", Sources: []dsl.SourceSpec{spec}, Output: out}); err != nil {
			return err
		}
	}
	return nil
}

func runCompress(args []string) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	var c common
	c.register(fs, "output/compressed.pdf")
	dpi := fs.Int("dpi", document.DefaultDPI, fmt.Sprintf("栅格化分辨率（%d-%d）", document.MinDPI, document.MaxDPI))
	_ = fs.Parse(args)

	specs, err := sourceSpecs(fs.Args(), "")
	if err != nil {
		return err
	}
	return execute(&c, &dsl.Plan{
		Name:    "compress",
		Sources: specs,
		Steps:   []dsl.Step{{Kind: dsl.StepCompress, DPI: *dpi}},
		Output:  c.output,
	})
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var c common
	c.register(fs, "output/extract.pdf")
	from := fs.Int("from", 1, "起始页（从 1 开始）")
	to := fs.Int("to", 1, "结束页（含）")
	_ = fs.Parse(args)

	specs, err := sourceSpecs(fs.Args(), "")
	if err != nil {
		return err
	}
	return execute(&c, &dsl.Plan{
		Name:    "extract",
		Sources: specs,
		Steps:   []dsl.Step{{Kind: dsl.StepExtract, From: *from, To: *to}},
		Output:  c.output,
	})
}

func runJob(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var c common
	c.register(fs, "")
	var vars stringList
	fs.Var(&vars, "var", "任务变量 key=value，可重复")
	dataJSON := fs.String("data", "", "绑定到任务文件的 JSON 对象")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("需要且只需要一个任务文件")
	}
	path := fs.Arg(0)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("无法打开任务文件 %s: %w", path, err)
	}
	data, err := binding.Vars(*dataJSON, vars)
	if err != nil {
		return err
	}
	text, err := binding.Expand(string(raw), data)
	if err != nil {
		return fmt.Errorf("展开任务文件 %s 失败: %w", path, err)
	}
	job, err := dsl.Parse(path, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("解析任务文件失败: %w", err)
	}
	plan, err := dsl.Lower(job)
	if err != nil {
		return err
	}
	if c.output != "" {
		plan.Output = c.output
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	e := engine.New(engine.Options{Log: c.logger(), Workers: c.workers, BaseDir: filepath.Dir(path)})
	defer e.Close()
	res, err := e.Execute(plan, cfg)
	if err != nil {
		return err
	}
	if err := writeDebug(c.debug, res.Doc); err != nil {
		return err
	}
	out := plan.Output
	if !filepath.IsAbs(out) && c.output == "" {
		out = filepath.Join(filepath.Dir(path), out)
	}
	if err := e.Write(res.Doc, out, res.Compact); err != nil {
		return err
	}
	fmt.Printf("已生成 PDF：%s\n", out)
	return nil
}

// execute 运行由命令行参数构造的计划，来源路径相对于当前目录。
func execute(c *common, plan *dsl.Plan) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	e := engine.New(engine.Options{Log: c.logger(), Workers: c.workers})
	defer e.Close()
	res, err := e.Execute(plan, cfg)
	if err != nil {
		return err
	}
	if err := writeDebug(c.debug, res.Doc); err != nil {
		return err
	}
	if err := e.Write(res.Doc, plan.Output, res.Compact); err != nil {
		return err
	}
	fmt.Printf("已生成 PDF：%s\n", plan.Output)
	return nil
}

func writeDebug(path string, doc *document.Document) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(doc.Meta, doc.Pages, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// sourceSpecs 按参数顺序生成来源；kind 为空时按扩展名判断。
func sourceSpecs(paths []string, kind dsl.SourceKind) ([]dsl.SourceSpec, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("没有输入文件")
	}
	specs := make([]dsl.SourceSpec, len(paths))
	for i, p := range paths {
		k := kind
		if k == "" {
			var err error
			if k, err = kindOf(p); err != nil {
				return nil, err
			}
		}
		specs[i] = dsl.SourceSpec{Kind: k, Path: p, Position: i + 1}
	}
	return specs, nil
}

func kindOf(path string) (dsl.SourceKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return dsl.SourceDocument, nil
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return dsl.SourceImage, nil
	}
	if dataset.DetectFormat(path) != dataset.FormatUnknown {
		return dsl.SourceTable, nil
	}
	return "", fmt.Errorf("无法识别的文件类型: %s", path)
}

// applyOrder 按文件名给来源分配位置。未列出的来源位置为 0，交给合并时的顺序校验报告。
func applyOrder(specs []dsl.SourceSpec, order []string) error {
	pos := map[string]int{}
	for i, name := range order {
		name = strings.TrimSpace(name)
		if _, dup := pos[name]; dup {
			return fmt.Errorf("顺序中重复出现 %s", name)
		}
		pos[name] = i + 1
	}
	matched := map[string]bool{}
	for i := range specs {
		specs[i].Position = 0
		for _, key := range []string{specs[i].Path, filepath.Base(specs[i].Path)} {
			if p, ok := pos[key]; ok {
				specs[i].Position = p
				matched[key] = true
				break
			}
		}
	}
	for name := range pos {
		if !matched[name] {
			return fmt.Errorf("顺序中的 %s 不是输入文件", name)
		}
	}
	return nil
}
