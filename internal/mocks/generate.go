package mocks

//go:generate mockery --name UsageStore --srcpkg github.com/stratahq/strata/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name DocumentStore --srcpkg github.com/stratahq/strata/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
