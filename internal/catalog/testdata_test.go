package catalog

const listingPage = `<!DOCTYPE html>
<html><body>
<section>
<ol class="row">
  <li><article class="product_pod">
    <div class="image_container"><a href="a-light-in-the-attic_1000/index.html"><img src="../media/cache/a.jpg"></a></div>
    <h3><a href="a-light-in-the-attic_1000/index.html" title="A Light in the Attic">A Light in the ...</a></h3>
  </article></li>
  <li><article class="product_pod">
    <h3><a href="../../media/x.html" title="Tipping the Velvet">Tipping the Velvet</a></h3>
  </article></li>
  <li><article class="product_pod">
    <h3><a title="No link">No link</a></h3>
  </article></li>
</ol>
<ul class="pager">
  <li class="current">Page 1 of 50</li>
  <li class="next"><a href="page-2.html">next</a></li>
</ul>
</section>
</body></html>`

const lastListingPage = `<html><body>
<article class="product_pod"><h3><a href="last-book_1/index.html">Last</a></h3></article>
<ul class="pager"><li class="previous"><a href="page-49.html">previous</a></li></ul>
</body></html>`

const detailPage = `<!DOCTYPE html>
<html><body>
<div class="row">
  <div class="col-sm-6 product_main">
    <h1>A Light in the
      Attic</h1>
    <p class="price_color">£51.77</p>
  </div>
</div>
<div id="product_description" class="sub-header"><h2>Product Description</h2></div>
<p>It's hard to imagine a world without A Light in the Attic.   This now-classic collection ...</p>
<div class="sub-header"><h2>Product Information</h2></div>
</body></html>`

const detailWithoutDescription = `<html><body>
<div class="product_main"><h1>Sharp Objects</h1></div>
</body></html>`

const detailWithoutTitle = `<html><body>
<div class="product_main"><p class="price_color">£10.00</p></div>
<div id="product_description"></div><p>Orphaned description.</p>
</body></html>`
