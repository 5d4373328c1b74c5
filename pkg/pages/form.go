package pages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/atidcollege/bugtracker-automation/pkg/bugdata"
	"github.com/atidcollege/bugtracker-automation/pkg/core"
)

// maxMonthClicks caps date picker navigation.
const maxMonthClicks = 120

var videoDuration = regexp.MustCompile(`\d+:\d{2}`)

// Form holds the field helpers shared by the create and edit screens.
type Form struct {
	*Base
}

func (f *Form) field(ctx context.Context, id string) (string, error) {
	return f.Find(ctx, ByResourceID(id))
}

// SetText focuses the field with resource id, clears it and types value.
func (f *Form) SetText(ctx context.Context, id, value string) error {
	f.log.Debug().Str("field", id).Msg("set text")
	el, err := f.field(ctx, id)
	if err != nil {
		return err
	}
	return f.typeInto(ctx, el, value)
}

// EnsureFieldVisible runs scrolls when the field is not on screen. With no
// scrolls it asks UiAutomator to scroll the field into view.
func (f *Form) EnsureFieldVisible(ctx context.Context, id string, scrolls ...func() error) error {
	if f.IsPresent(ByResourceID(id)) {
		f.log.Debug().Str("field", id).Msg("field already visible")
		return nil
	}
	if len(scrolls) == 0 {
		f.scrollTo(id)
		return f.sleep(ctx, 500*time.Millisecond)
	}
	for _, scroll := range scrolls {
		if err := scroll(); err != nil {
			return err
		}
		if err := f.sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func (f *Form) scrollTo(id string) {
	loc := ScrollIntoView(ByResourceID(id))
	if _, err := f.driver.FindElement(loc.Strategy, loc.Value); err != nil {
		f.log.Debug().Err(err).Str("field", id).Msg("scroll into view failed")
	}
}

// SelectDropdown opens the dropdown at id and picks the option showing
// value. On failure the dropdown is closed with back and the error returned.
func (f *Form) SelectDropdown(ctx context.Context, id, value string) error {
	f.log.Debug().Str("field", id).Str("value", value).Msg("select dropdown")
	if err := f.sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	err := f.selectOption(ctx, id, value)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.log.Warn().Err(err).Str("field", id).Str("value", value).Msg("could not select dropdown value, pressing back")
	if backErr := f.Back(); backErr != nil {
		f.log.Debug().Err(backErr).Msg("back failed")
	}
	_ = f.sleep(ctx, 500*time.Millisecond)
	return fmt.Errorf("select %q in %s: %w", value, id, err)
}

func (f *Form) selectOption(ctx context.Context, id, value string) error {
	el, err := f.actionWaiter().ForPresent(ctx, ByResourceID(id))
	if err != nil {
		return err
	}
	if err := f.driver.ClickElement(el); err != nil {
		return err
	}
	if err := f.sleep(ctx, time.Second); err != nil {
		return err
	}
	if err := f.Click(ctx, ByText(value)); err != nil {
		return err
	}
	return f.sleep(ctx, 1500*time.Millisecond)
}

// SetDate opens the date picker of field id and selects a DD.MM.YYYY date.
// On failure the picker is dismissed with back.
func (f *Form) SetDate(ctx context.Context, id, date string) error {
	f.log.Debug().Str("field", id).Str("date", date).Msg("set date")
	f.scrollTo(id)
	if err := f.sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	el, err := f.field(ctx, id)
	if err != nil {
		return err
	}
	if err := f.driver.ClickElement(el); err != nil {
		return err
	}
	if err := f.sleep(ctx, time.Second); err != nil {
		return err
	}

	err = f.pickDate(ctx, date)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.log.Warn().Err(err).Str("date", date).Msg("could not select date, pressing back")
	if backErr := f.Back(); backErr != nil {
		f.log.Debug().Err(backErr).Msg("back failed")
	}
	_ = f.sleep(ctx, 300*time.Millisecond)
	return err
}

func (f *Form) pickDate(ctx context.Context, date string) error {
	day, month, year, err := bugdata.SplitDate(date)
	if err != nil {
		return core.NewTestDataError("invalid date, expected DD.MM.YYYY", err)
	}
	if err := f.selectDay(ctx, day, month, year); err != nil {
		return err
	}
	okLoc := ByText(DatePickerOK)
	ok, err := f.driver.FindElement(okLoc.Strategy, okLoc.Value)
	if err != nil {
		return err
	}
	if err := f.driver.ClickElement(ok); err != nil {
		return err
	}
	return f.sleep(ctx, 300*time.Millisecond)
}

// selectDay clicks the picker cell for the date, navigating months first
// when it is not shown and falling back to looser matches.
func (f *Form) selectDay(ctx context.Context, day, month, year int) error {
	full := fmt.Sprintf("%d %s %d", day, MonthName(month), year)

	if clicked, err := f.clickFirst(ctx, ByDescriptionContains(full)); clicked || err != nil {
		return err
	}

	f.log.Info().Int("month", month).Int("year", year).Msg("date not in current month, navigating")
	if err := f.navigateTo(ctx, month, year); err != nil {
		return err
	}
	if clicked, err := f.clickFirst(ctx, ByDescriptionContains(full)); clicked || err != nil {
		return err
	}

	dayMonth := fmt.Sprintf("%d %s", day, MonthName(month))
	if clicked, err := f.clickFirst(ctx, ByDescriptionContains(dayMonth)); clicked || err != nil {
		return err
	}

	f.log.Warn().Int("day", day).Msg("month not found, selecting by day number")
	fallbacks := []core.Locator{ByClickableText(strconv.Itoa(day))}
	if day < 10 {
		fallbacks = append(fallbacks, ByClickableText(fmt.Sprintf("%02d", day)))
	}
	fallbacks = append(fallbacks, NumericCells())
	for _, loc := range fallbacks {
		if clicked, err := f.clickFirst(ctx, loc); clicked || err != nil {
			return err
		}
	}
	return core.NewElementNotFoundError(full, core.ByUiAutomator, "no selectable date in picker")
}

func (f *Form) clickFirst(ctx context.Context, loc core.Locator) (bool, error) {
	ids, err := f.FindAll(loc)
	if err != nil || len(ids) == 0 {
		return false, nil
	}
	if err := f.driver.ClickElement(ids[0]); err != nil {
		return false, err
	}
	f.log.Debug().Str("locator", loc.String()).Msg("clicked")
	return true, f.sleep(ctx, 500*time.Millisecond)
}

func (f *Form) navigateTo(ctx context.Context, month, year int) error {
	curMonth, curYear, ok := f.CurrentPickerMonth(ctx)
	if !ok {
		f.log.Warn().Msg("could not read picker month, skipping navigation")
		return nil
	}
	diff := (year-curYear)*12 + (month - curMonth)
	if diff == 0 {
		return nil
	}

	button := DatePickerNext
	if diff < 0 {
		button = DatePickerPrev
		diff = -diff
	}
	if diff > maxMonthClicks {
		f.log.Warn().Int("months", diff).Msg("limiting month navigation")
		diff = maxMonthClicks
	}

	loc := ByResourceID(button)
	for i := 0; i < diff; i++ {
		id, err := f.driver.FindElement(loc.Strategy, loc.Value)
		if err == nil {
			err = f.driver.ClickElement(id)
		}
		if err != nil {
			f.log.Error().Err(err).Int("iteration", i).Msg("month navigation failed")
			break
		}
		if err := f.sleep(ctx, 200*time.Millisecond); err != nil {
			return err
		}
	}
	return f.sleep(ctx, 500*time.Millisecond)
}

// CurrentPickerMonth reads the month and year the open date picker shows
// from the content-desc of its day cells.
func (f *Form) CurrentPickerMonth(ctx context.Context) (month, year int, ok bool) {
	if err := f.sleep(ctx, 500*time.Millisecond); err != nil {
		return 0, 0, false
	}

	var cells []string
	for _, loc := range pickerCellLocators() {
		ids, err := f.FindAll(loc)
		if err == nil && len(ids) > 0 {
			cells = ids
			break
		}
	}

	for i, id := range cells {
		if i == 10 {
			break
		}
		desc, err := f.driver.GetElementAttribute(id, "content-desc")
		if err != nil || desc == "" {
			continue
		}
		parts := strings.Fields(normalizeText(desc))
		if len(parts) < 3 {
			continue
		}
		m := MonthNumber(parts[1])
		y, err := strconv.Atoi(parts[2])
		if m > 0 && err == nil {
			f.log.Debug().Int("month", m).Int("year", y).Msg("picker month")
			return m, y, true
		}
	}
	return 0, 0, false
}

// PushAttachment copies a file from the attachment root to the device camera
// folder where the gallery picks it up.
func (f *Form) PushAttachment(ctx context.Context, name string) error {
	data, err := os.ReadFile(filepath.Join(f.fileRoot, name)) //#nosec G304 -- test data file
	if err != nil {
		return core.NewTestDataError("attachment not found: "+name, err)
	}
	remote := CameraFolder + name
	if err := f.driver.PushFile(remote, data); err != nil {
		return fmt.Errorf("push %s: %w", name, err)
	}
	f.log.Info().Str("path", remote).Msg("file pushed to device")
	return f.sleep(ctx, 2*time.Second)
}

// AttachFile pushes name to the device and picks it through the attach
// button at id. It is a no-op when attachments are disabled or name is empty.
func (f *Form) AttachFile(ctx context.Context, id, name string) error {
	if !f.attachFiles {
		f.log.Info().Msg("file attachment disabled, skipping")
		return nil
	}
	if name == "" {
		return nil
	}
	if err := f.PushAttachment(ctx, name); err != nil {
		return err
	}
	if err := f.EnsureFieldVisible(ctx, id); err != nil {
		return err
	}
	el, err := f.field(ctx, id)
	if err != nil {
		return err
	}
	if err := f.driver.ClickElement(el); err != nil {
		return err
	}
	if err := f.sleep(ctx, 2*time.Second); err != nil {
		return err
	}
	_, err = f.SelectPhoto(ctx)
	return err
}

// SelectPhoto walks the system media picker (Media, Gallery, Camera) and
// picks the first tile that is not a video. It reports whether a photo was
// picked; when a step is missing the picker is closed with back.
func (f *Form) SelectPhoto(ctx context.Context) (bool, error) {
	steps := []struct {
		name    string
		locs    []core.Locator
		settle  time.Duration
		backOut int
	}{
		{"media", []core.Locator{ByResourceIDTextContains(IntentChooserText, "מדיה"), ByResourceIDTextContains(IntentChooserText, "Media")}, 2 * time.Second, 1},
		{"gallery", []core.Locator{ByTextContains("גלריה"), ByTextContains("Gallery")}, 1500 * time.Millisecond, 1},
		{"camera", []core.Locator{ByTextContains("מצלמה"), ByTextContains("Camera")}, 1500 * time.Millisecond, 1},
	}

	for _, step := range steps {
		clicked := false
		for _, loc := range step.locs {
			ids, err := f.FindAll(loc)
			if err != nil || len(ids) == 0 {
				continue
			}
			if err := f.driver.ClickElement(ids[0]); err != nil {
				return false, f.backOut(ctx, 1, err)
			}
			clicked = true
			break
		}
		if !clicked {
			f.log.Warn().Str("step", step.name).Msg("media picker option not found, closing picker")
			return false, f.backOut(ctx, step.backOut, nil)
		}
		if err := f.sleep(ctx, step.settle); err != nil {
			return false, err
		}
	}

	if f.clickFirstPhoto(ctx) {
		f.log.Info().Msg("photo attached")
		return true, f.sleep(ctx, 1500*time.Millisecond)
	}
	f.log.Warn().Msg("no photo selected, returning to form")
	return false, f.backOut(ctx, 2, nil)
}

func (f *Form) clickFirstPhoto(ctx context.Context) bool {
	tiles, err := f.FindAll(ByResourceID(GalleryTile))
	if err != nil {
		return false
	}
	for i, tile := range tiles {
		if ctx.Err() != nil {
			return false
		}
		if f.isVideoTile(tile) {
			f.log.Debug().Int("tile", i).Msg("skipping video")
			continue
		}
		if err := f.driver.ClickElement(tile); err != nil {
			f.log.Warn().Err(err).Int("tile", i).Msg("tile click failed")
			continue
		}
		return true
	}
	return false
}

func (f *Form) isVideoTile(tile string) bool {
	for _, marker := range []string{GalleryDuration, GalleryTypeIcon} {
		if kids, err := f.driver.FindChildElements(tile, core.ByID, marker); err == nil && len(kids) > 0 {
			return true
		}
	}
	desc, err := f.driver.GetElementAttribute(tile, "content-desc")
	return err == nil && videoDuration.MatchString(desc)
}

func (f *Form) backOut(ctx context.Context, times int, cause error) error {
	for i := 0; i < times; i++ {
		if err := f.Back(); err != nil {
			return err
		}
		if err := f.sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	return cause
}

// Submit hides the keyboard, scrolls to the button labelled text if it is
// not on screen and clicks it.
func (f *Form) Submit(ctx context.Context, text string) (*BugsListPage, error) {
	f.log.Info().Str("button", text).Msg("submitting form")
	if err := f.HideKeyboard(ctx); err != nil {
		return nil, err
	}
	if !f.IsPresent(ByText(text)) {
		if err := f.gestures.ScrollDown(); err != nil {
			return nil, err
		}
		if err := f.sleep(ctx, 300*time.Millisecond); err != nil {
			return nil, err
		}
	}
	if err := f.Click(ctx, ByText(text)); err != nil {
		return nil, fmt.Errorf("could not find submit button %q: %w", text, err)
	}
	if err := f.sleep(ctx, 1500*time.Millisecond); err != nil {
		return nil, err
	}
	return NewBugsListPage(f.Base), nil
}
