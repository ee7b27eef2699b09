package service

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortly-go/constant"
	"shortly-go/internal/apperrors"
	"shortly-go/internal/model"
	"shortly-go/internal/plan"
)

func appErrCode(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *apperrors.AppError, got %T: %v", err, err)
	return appErr.Code
}

func TestCreateGeneratedCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		link, err := svc.Create(nil, fmt.Sprintf("https://example.com/page/%d", i), "", "")
		require.NoError(t, err)
		assert.Len(t, link.ShortCode, DefaultCodeLength)
		assert.Nil(t, link.CustomAlias)
		assert.True(t, link.IsActive)
		assert.False(t, seen[link.ShortCode], "generated code reused")
		seen[link.ShortCode] = true
	}
}

func TestCreateInvalidURL(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)

	for _, bad := range []string{"", "example.com", "ftp://example.com/x", "not a url"} {
		_, err := svc.Create(nil, bad, "", "")
		require.Error(t, err, "url: %q", bad)
		assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
	}

	var count int64
	require.NoError(t, db.Model(&model.Link{}).Count(&count).Error)
	assert.Zero(t, count, "no record persisted on validation failure")
}

func TestCreateAliasRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)
	pro := newTestUser(t, db, "pro-user", plan.TierPro)

	t.Run("TooShortAndTooLong", func(t *testing.T) {
		for _, alias := range []string{"ab", strings.Repeat("a", 51)} {
			_, err := svc.Create(pro, "https://example.com", alias, "")
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
		}

		var count int64
		require.NoError(t, db.Model(&model.Link{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("NormalizedLowercase", func(t *testing.T) {
		link, err := svc.Create(pro, "https://example.com", "  MyAlias ", "")
		require.NoError(t, err)
		require.NotNil(t, link.CustomAlias)
		assert.Equal(t, "myalias", *link.CustomAlias)
	})

	t.Run("AnonymousCannotUseAlias", func(t *testing.T) {
		_, err := svc.Create(nil, "https://example.com", "promo1", "")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, appErrCode(t, err))
	})

	t.Run("FreeTierCannotUseAlias", func(t *testing.T) {
		free := newTestUser(t, db, "free-user", plan.TierFree)
		_, err := svc.Create(free, "https://example.com", "promo2", "")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, appErrCode(t, err))
	})

	t.Run("AliasTaken", func(t *testing.T) {
		_, err := svc.Create(pro, "https://example.com", "sales", "")
		require.NoError(t, err)

		_, err = svc.Create(pro, "https://example.org", "sales", "")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
	})
}

func TestCreateConcurrentSameAlias(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)
	pro := newTestUser(t, db, "pro-user", plan.TierPro)

	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(pro, "https://example.com", "flash-sale", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, http.StatusBadRequest, appErrCode(t, err))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one create wins the alias")
}

func TestCreatePlanLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)
	free := newTestUser(t, db, "free-user", plan.TierFree)

	for i := 0; i < plan.Plans[plan.TierFree].LinksLimit; i++ {
		_, err := svc.Create(free, fmt.Sprintf("https://example.com/%d", i), "", "")
		require.NoError(t, err)
	}

	_, err := svc.Create(free, "https://example.com/over", "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrCode(t, err))

	count, err := svc.CountByUser(free.ID)
	require.NoError(t, err)
	assert.EqualValues(t, plan.Plans[plan.TierFree].LinksLimit, count, "no record created past the limit")
}

func TestLookup(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)
	pro := newTestUser(t, db, "pro-user", plan.TierPro)

	link, err := svc.Create(pro, "https://example.com/page", "promo", "")
	require.NoError(t, err)

	t.Run("ByAlias", func(t *testing.T) {
		found, err := svc.Lookup("promo")
		require.NoError(t, err)
		assert.Equal(t, link.ID, found.ID)
	})

	t.Run("ByCode", func(t *testing.T) {
		found, err := svc.Lookup(link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, link.ID, found.ID)
	})

	t.Run("AliasPrecedence", func(t *testing.T) {
		// Another link's alias deliberately set to the first link's
		// short code: the alias namespace must win.
		other, err := svc.Create(pro, "https://example.org", "", "")
		require.NoError(t, err)
		require.NoError(t, db.Model(other).Update("custom_alias", link.ShortCode).Error)

		found, err := svc.Lookup(link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, other.ID, found.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := svc.Lookup("no-such-code")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, appErrCode(t, err))
	})
}

func TestCreateDropsRememberedMiss(t *testing.T) {
	db := newTestDB(t)
	pool, fake := newFakeRedisPool()
	svc := NewLinkService(db, pool, DefaultCodeLength)
	pro := newTestUser(t, db, "pro-user", plan.TierPro)

	// A probe before the alias exists leaves a negative cache entry.
	_, err := svc.Lookup("promo")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrCode(t, err))

	cached, ok := fake.get(constant.GetLinkCacheKey("promo"))
	require.True(t, ok)
	assert.Empty(t, cached)

	link, err := svc.Create(pro, "https://example.com/page", "promo", "")
	require.NoError(t, err)

	found, err := svc.Lookup("promo")
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)

	found, err = svc.Lookup(link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)
}

func TestLookupCacheRoundTrip(t *testing.T) {
	db := newTestDB(t)
	pool, _ := newFakeRedisPool()
	svc := NewLinkService(db, pool, DefaultCodeLength)
	owner := newTestUser(t, db, "cache-user", plan.TierFree)

	link, err := svc.Create(owner, "https://example.com/original", "", "")
	require.NoError(t, err)

	_, err = svc.Lookup(link.ShortCode)
	require.NoError(t, err)

	// A direct row change is invisible until the cache is dropped.
	require.NoError(t, db.Model(link).Update("original_url", "https://example.com/changed").Error)

	cached, err := svc.Lookup(link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/original", cached.OriginalURL)

	require.NoError(t, svc.UpdateTargetURL(link.ShortCode, owner, "https://example.com/repointed"))

	fresh, err := svc.Lookup(link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repointed", fresh.OriginalURL)
}

func TestIncrementClicksConcurrent(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)

	link, err := svc.Create(nil, "https://example.com", "", "")
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.IncrementClicks(link.ID))
		}()
	}
	wg.Wait()

	var stored model.Link
	require.NoError(t, db.First(&stored, link.ID).Error)
	assert.EqualValues(t, n, stored.ClicksCount, "no lost updates under concurrency")
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)
	owner := newTestUser(t, db, "owner", plan.TierPro)
	stranger := newTestUser(t, db, "stranger", plan.TierPro)

	link, err := svc.Create(owner, "https://example.com", "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&model.ClickEvent{LinkID: link.ID, DeviceType: DeviceDesktop}).Error)
	}

	t.Run("StrangerGetsNotFound", func(t *testing.T) {
		err := svc.Delete(link.ShortCode, stranger)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, appErrCode(t, err))
	})

	t.Run("OwnerCascades", func(t *testing.T) {
		require.NoError(t, svc.Delete(link.ShortCode, owner))

		_, err := svc.Lookup(link.ShortCode)
		require.Error(t, err)

		var events int64
		require.NoError(t, db.Model(&model.ClickEvent{}).Where("link_id = ?", link.ID).Count(&events).Error)
		assert.Zero(t, events, "click events deleted with the link")
	})
}

func TestUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewLinkService(db, nil, DefaultCodeLength)
	owner := newTestUser(t, db, "owner", plan.TierPro)

	link, err := svc.Create(owner, "https://example.com", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(link.ShortCode, owner, false))

	found, err := svc.Lookup(link.ShortCode)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}
