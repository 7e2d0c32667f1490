package experiment

import (
	"fmt"
	"strconv"
	"strings"

	"agmipkit/internal/ace"
	"agmipkit/internal/agmip"
	"agmipkit/internal/event"
)

// FertDistribution splits the experiment's total nitrogen (fen_tot) into num fertilizer events.
// Event i is dated offsets[i] days after planting and receives ptps[i] percent of fen_tot,
// rounded to kg/ha. The new events reuse the first existing fertilizer event as a template.
func FertDistribution(exp *ace.Experiment, num, fecd, feacd, fedep string, offsets, ptps []string) error {
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return fmt.Errorf("invalid number of fertilizer applications %q: %w", num, err)
	}
	if n != len(offsets) || n != len(ptps) {
		return fmt.Errorf("expected %d offset/percentage pairs, got %d offsets and %d percentages",
			n, len(offsets), len(ptps))
	}

	if exp.Value("fen_tot") == "" {
		return missing("fen_tot")
	}
	fenTot := exp.Value("fen_tot")
	if _, err := parseFloat("fen_tot", fenTot); err != nil {
		return err
	}

	tl := event.New(exp.Events(), event.TypePlanting)
	if !tl.Exists() {
		return missing("planting event")
	}
	pdate := tl.Current()["date"]
	if _, err := agmip.ParseDate(pdate); err != nil {
		return fmt.Errorf("planting date: %w", err)
	}

	dates := make([]string, n)
	amounts := make([]string, n)
	for i := range n {
		if dates[i], err = agmip.DateOffset(pdate, offsets[i]); err != nil {
			return fmt.Errorf("application %d: %w", i+1, err)
		}
		if amounts[i], err = nitrogenShare(fenTot, ptps[i]); err != nil {
			return fmt.Errorf("application %d: %w", i+1, err)
		}
	}

	tl.SetType(event.TypeFertilizer)
	for i := range n {
		ev := tl.Add(dates[i], true)
		ev["fecd"] = fecd
		ev["feacd"] = feacd
		ev["fedep"] = fedep
		ev["feamn"] = amounts[i]
	}
	exp.SetEvents(tl.Events())
	return nil
}

// nitrogenShare returns pct percent of total, rounded half up to whole kg/ha.
func nitrogenShare(total, pct string) (string, error) {
	amount, err := agmip.Multiply(total, pct)
	if err != nil {
		return "", fmt.Errorf("invalid percentage: %w", err)
	}
	if amount, err = agmip.Multiply(amount, "0.01"); err != nil {
		return "", err
	}
	kg, err := agmip.NumericToBigInt(amount, true)
	if err != nil {
		return "", err
	}
	return kg.String(), nil
}

// OMDistribution completes the first organic matter event: it is moved offset days from the
// planting date and receives the residue code, C:N ratio, depth, incorporation and the nitrogen
// percentage round2(round2(100/dmr)/omc2n). The event must already carry omamt.
func OMDistribution(exp *ace.Experiment, offset, omcd, omc2n, omdep, ominp, dmr string) error {
	events := exp.Events()
	om := event.New(events, event.TypeOrganicMatter)
	if !om.Exists() {
		return missing("organic matter event")
	}
	omamt := om.Current()["omamt"]
	if omamt == "" {
		return missing("omamt")
	}

	tl := event.New(events, event.TypePlanting)
	if !tl.Exists() || tl.Current()["date"] == "" {
		return missing("planting date")
	}
	odate, err := agmip.DateOffset(tl.Current()["date"], offset)
	if err != nil {
		return err
	}

	perDry, err := agmip.DivideHalfUp("100.0", dmr, 2)
	if err != nil {
		return fmt.Errorf("invalid dmr: %w", err)
	}
	omnPct, err := agmip.DivideHalfUp(perDry.String(), omc2n, 2)
	if err != nil {
		return fmt.Errorf("invalid omc2n: %w", err)
	}

	tl.SetType(event.TypeOrganicMatter)
	tl.Update("date", odate, true, false)
	tl.Update("omcd", omcd, true, false)
	tl.Update("omamt", omamt, true, false)
	tl.Update("omc2n", omc2n, true, false)
	tl.Update("omdep", omdep, true, false)
	tl.Update("ominp", ominp, true, false)
	tl.Update("omn%", omnPct.StringFixed(2), true, true)
	exp.SetEvents(tl.Events())
	return nil
}
