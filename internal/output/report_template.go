package output

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - rampgen report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --text-muted: #94a3b8;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-warning: #f59e0b;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }
        .header, .section, .metric-card {
            background: var(--bg-primary);
            border-radius: 12px;
            box-shadow: var(--shadow);
        }
        .header {
            padding: 2rem;
            margin-bottom: 2rem;
            display: flex;
            justify-content: space-between;
            align-items: center;
            flex-wrap: wrap;
            gap: 1rem;
        }
        .header h1 { font-size: 1.75rem; }
        .meta { color: var(--text-muted); font-size: 0.875rem; display: flex; gap: 2rem; }
        .status { padding: 0.75rem 1.5rem; border-radius: 8px; font-weight: 600; }
        .status.pass { color: var(--accent-success); background: rgba(34, 197, 94, 0.1); }
        .status.warn { color: var(--accent-warning); background: rgba(245, 158, 11, 0.1); }
        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .metric-card { padding: 1.5rem; }
        .label {
            font-size: 0.75rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--text-muted);
        }
        .value { font-size: 1.75rem; font-weight: 700; }
        .unit { font-size: 0.875rem; color: var(--text-secondary); margin-left: 0.25rem; }
        .section { padding: 1.5rem; margin-bottom: 2rem; }
        .section-title { font-size: 1.125rem; font-weight: 600; margin-bottom: 1rem; }
        table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { padding: 0.5rem 0.75rem; text-align: left; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-muted); font-weight: 600; }
        .bar { height: 0.75rem; background: var(--accent-primary); border-radius: 4px; }
        .chart-wrapper { position: relative; height: 320px; }
        .footer { text-align: center; color: var(--text-muted); font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="container">
        <header class="header">
            <div>
                <h1>{{.Title}}</h1>
                <div class="meta">
                    <span>{{.Mode}}</span>
                    <span>{{duration .Elapsed}}</span>
                    <span>final state {{.State}}</span>
                </div>
            </div>
            {{if .Drained}}
            <div class="status pass">Drained</div>
            {{else}}
            <div class="status warn">Incomplete{{if .Reason}} ({{.Reason}}){{end}}</div>
            {{end}}
        </header>

        <section class="metrics-grid">
            <div class="metric-card">
                <div class="label">Sent</div>
                <div class="value">{{number .Stats.Sent}}</div>
            </div>
            <div class="metric-card">
                <div class="label">Received</div>
                <div class="value">{{number .Stats.Received}}</div>
            </div>
            <div class="metric-card">
                <div class="label">Success Rate</div>
                <div class="value">{{pct .Success}}<span class="unit">%</span></div>
            </div>
            <div class="metric-card">
                <div class="label">Final Rate</div>
                <div class="value">{{.Stats.PPS}}<span class="unit">pps</span></div>
            </div>
            <div class="metric-card">
                <div class="label">Accepted Rate</div>
                <div class="value">{{.Stats.PPSAccepted}}<span class="unit">pps</span></div>
            </div>
            <div class="metric-card">
                <div class="label">Max Backlog</div>
                <div class="value">{{.Stats.MaxBacklog}}</div>
            </div>
        </section>

        <section class="section">
            <h2 class="section-title">Round Trip</h2>
            <table>
                <tr><th>Smoothed</th><th>Variance</th>{{if .HasLatency}}<th>Min</th><th>P50</th><th>P90</th><th>P95</th><th>P99</th><th>Max</th>{{end}}</tr>
                <tr>
                    <td>{{latency .Stats.RTT}}</td>
                    <td>{{latency .Stats.RTTVar}}</td>
                    {{if .HasLatency}}
                    <td>{{latency .Latency.Min}}</td>
                    <td>{{latency .Latency.P50}}</td>
                    <td>{{latency .Latency.P90}}</td>
                    <td>{{latency .Latency.P95}}</td>
                    <td>{{latency .Latency.P99}}</td>
                    <td>{{latency .Latency.Max}}</td>
                    {{end}}
                </tr>
            </table>
        </section>

        <section class="section">
            <h2 class="section-title">Histogram</h2>
            <table>
                {{range .Histogram}}
                <tr>
                    <td style="width: 6rem">{{.Label}}</td>
                    <td><div class="bar" style="width: {{printf "%.1f" .Percent}}%"></div></td>
                    <td style="width: 8rem">{{number .Count}}</td>
                </tr>
                {{end}}
            </table>
        </section>

        {{if .Steps}}
        <section class="section">
            <h2 class="section-title">Latency by Rate</h2>
            <div class="chart-wrapper">
                <canvas id="stepsChart"></canvas>
            </div>
            <table>
                <tr><th>Rate</th><th>Replies</th><th>P50</th><th>P90</th><th>P99</th><th>Max</th></tr>
                {{range .Steps}}
                <tr>
                    <td>{{.PPS}} pps</td>
                    <td>{{.Count}}</td>
                    <td>{{latency .P50}}</td>
                    <td>{{latency .P90}}</td>
                    <td>{{latency .P99}}</td>
                    <td>{{latency .Max}}</td>
                </tr>
                {{end}}
            </table>
        </section>
        {{end}}

        <footer class="footer">
            <p>Generated by rampgen {{.Generated.Format "2006-01-02 15:04:05 MST"}}</p>
        </footer>
    </div>

    <script>
        const stepsData = {{.StepsJSON}};
        if (stepsData.length > 0 && typeof Chart !== 'undefined') {
            new Chart(document.getElementById('stepsChart'), {
                type: 'line',
                data: {
                    labels: stepsData.map(d => d.pps + ' pps'),
                    datasets: [
                        { label: 'P50 (ms)', data: stepsData.map(d => d.p50), borderColor: '#3b82f6' },
                        { label: 'P90 (ms)', data: stepsData.map(d => d.p90), borderColor: '#22c55e' },
                        { label: 'P99 (ms)', data: stepsData.map(d => d.p99), borderColor: '#f59e0b' },
                        { label: 'Max (ms)', data: stepsData.map(d => d.max), borderColor: '#ef4444' },
                    ],
                },
                options: {
                    responsive: true,
                    maintainAspectRatio: false,
                    interaction: { mode: 'index', intersect: false },
                },
            });
        }
    </script>
</body>
</html>
`
