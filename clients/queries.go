package clients

import "fmt"

const productFields = `
  id
  title
  description
  descriptionHtml
  handle
  vendor
  priceRange { minVariantPrice { amount currencyCode } }
  compareAtPriceRange { minVariantPrice { amount currencyCode } }
  images(first: %d) { edges { node { url altText } } }
  variants(first: 50) {
    edges {
      node {
        id
        title
        price { amount currencyCode }
        compareAtPrice { amount currencyCode }
        availableForSale
        selectedOptions { name value }
        image { url altText }
      }
    }
  }
  options { name values }
`

var (
	productsQuery = `
query GetProducts($first: Int!, $query: String) {
  products(first: $first, query: $query) {
    edges { node {` + fmt.Sprintf(productFields, 5) + `} }
  }
}`

	productByHandleQuery = `
query GetProductByHandle($handle: String!) {
  productByHandle(handle: $handle) {` + fmt.Sprintf(productFields, 10) + `}
}`
)

const cartCreateMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart {
      id
      checkoutUrl
      totalQuantity
    }
    userErrors {
      field
      message
    }
  }
}`
