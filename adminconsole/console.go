// Package adminconsole implements spec SPEC_FULL section 4.8: a small,
// fixed command set (status/recent/sysinfo/memsize/pause/resume/quit)
// reachable both from an interactive stdin line editor and from the local
// control socket in ipc.go. It plays the same role as the teacher's
// console package, with the liner-backed line editor kept and the
// JavaScript (otto) evaluation loop it drove replaced by Dispatch's fixed
// command table — there is no general scripting surface in this design,
// only a handful of operator commands.
package adminconsole

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/gosigar"
	"github.com/fjl/memsize"
	"github.com/mattn/go-colorable"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
	"github.com/shirou/gopsutil/process"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

// HistoryFile mirrors the teacher's console.HistoryFile: the name of the
// scrollback file kept inside the miner's state directory.
const HistoryFile = "console_history"

// Prompt is the console's fixed prompt prefix.
const Prompt = "clcminer> "

// Console is one interactive admin session, either the stdin REPL or a
// single control-socket connection (ipc.go constructs one per connection).
type Console struct {
	state    *state.Shared
	fetcher  *job.Fetcher
	log      *plog.Logger
	out      io.Writer
	histPath string
}

// Config bundles what a Console needs to dispatch commands against the
// running miner.
type Config struct {
	State    *state.Shared
	Fetcher  *job.Fetcher
	Log      *plog.Logger
	Out      io.Writer // defaults to a colorable stdout when nil
	HistPath string    // scrollback file; empty disables history persistence
}

// New builds a Console from cfg.
func New(cfg Config) *Console {
	out := cfg.Out
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	return &Console{state: cfg.State, fetcher: cfg.Fetcher, log: cfg.Log, out: out, histPath: cfg.HistPath}
}

// Interactive runs a liner-backed REPL on stdin until the operator types
// "quit" or aborts with Ctrl-D. Mirrors the teacher's Console.Interactive
// loop structure (prompt, read, dispatch, repeat) without the multi-line
// JS-continuation bookkeeping that loop needed for otto statements.
func (c *Console) Interactive() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if c.histPath != "" {
		if f, err := readHistoryFile(c.histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintln(c.out, "clcminer admin console. Type 'quit' to exit this session (mining continues).")
	for {
		input, err := line.Prompt(Prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				continue
			}
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == "quit" {
			c.saveHistory(line)
			return
		}
		fmt.Fprintln(c.out, c.Dispatch(input))
	}
}

func (c *Console) saveHistory(line *liner.State) {
	if c.histPath == "" {
		return
	}
	if f, err := writeHistoryFile(c.histPath); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

// Dispatch runs a single command line and returns its textual output, used
// both by Interactive and by the control-socket handler in ipc.go.
func (c *Console) Dispatch(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "status":
		return c.status()
	case "recent":
		n := 10
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				n = v
			}
		}
		return c.recent(n)
	case "sysinfo":
		return c.sysinfo()
	case "memsize":
		return c.memsize()
	case "pause":
		return c.pause()
	case "resume":
		return c.resume()
	default:
		return fmt.Sprintf("unknown command %q (try: status, recent [n], sysinfo, memsize, pause, resume, quit)", cmd)
	}
}

func (c *Console) status() string {
	current := c.state.CurrentJob()
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"seed", "diff", "reward", "hashrate", "best", "total mined"})
	table.Append([]string{
		current.Seed,
		job.PadHex(current.Diff, 64),
		fmt.Sprintf("%v", current.Reward),
		fmt.Sprintf("%.2f H/ms", c.state.Rate()),
		job.PadHex(c.state.Best(), 64),
		fmt.Sprintf("%v", c.state.TotalMined()),
	})
	table.Render()
	return b.String()
}

func (c *Console) recent(n int) string {
	records := c.state.Recent(n)
	if len(records) == 0 {
		return "no submissions recorded yet"
	}
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"when", "digest", "reward", "accepted", "pool", "coin id"})
	for _, r := range records {
		table.Append([]string{
			r.Timestamp.Format("15:04:05"),
			r.Digest,
			fmt.Sprintf("%v", r.Reward),
			fmt.Sprintf("%v", r.Accepted),
			fmt.Sprintf("%v", r.Pool),
			fmt.Sprintf("%d", r.CoinID),
		})
	}
	table.Render()
	return b.String()
}

// sysinfo reports this process's own CPU/RSS, via gopsutil for the live
// reading and gosigar's CPU snapshot type for the struct shape, the same
// pairing the teacher carries both dependencies for without ever wiring
// either (see DESIGN.md).
func (c *Console) sysinfo() string {
	proc, err := process.NewProcess(int32(currentPID()))
	if err != nil {
		return fmt.Sprintf("sysinfo: %v", err)
	}
	cpuPct, _ := proc.CPUPercent()
	mem, err := proc.MemoryInfo()
	if err != nil {
		return fmt.Sprintf("sysinfo: %v", err)
	}

	var cpu sigar.Cpu
	_ = cpu.Get() // best-effort host-wide snapshot to accompany the per-process reading

	return fmt.Sprintf("cpu: %.1f%%  rss: %d MB  vms: %d MB  host cpu user ticks: %d",
		cpuPct, mem.RSS/1024/1024, mem.VMS/1024/1024, cpu.User)
}

// memsize reports a fjl/memsize scan of the live SharedState value graph,
// letting an operator inspect memory held by the recent-wins ring/current
// job without attaching a debugger.
func (c *Console) memsize() string {
	sizes := memsize.Scan(c.state)
	return sizes.Report()
}

func (c *Console) pause() string {
	c.state.WinPause()
	return "paused: current job forced to its wait-form"
}

func (c *Console) resume() string {
	c.fetcher.Poke()
	return "resume requested: re-fetching job immediately"
}
